package bootstrap

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"smishguard/internal/models"
	"smishguard/internal/repository"
)

// Source names which provider supplied the original corpus.
type Source string

const (
	// SourceDatabase means the corpus was already ingested.
	SourceDatabase Source = "database"
	// SourceCSV means the corpus was loaded from the configured CSV file.
	SourceCSV Source = "csv"
	// SourceSeed means the built-in sample corpus was used. This only
	// happens on a deployment with no original records and no CSV file,
	// and it is reported explicitly, never silently.
	SourceSeed Source = "seed"
)

// Result reports which provider supplied the corpus and how many original
// records the store now holds.
type Result struct {
	Source  Source `json:"source"`
	Records int    `json:"records"`
}

// Loader ensures the immutable bootstrap corpus exists, trying providers in
// a fixed order: database, then CSV file, then the built-in seed sample.
type Loader struct {
	training repository.TrainingRecordRepository
	csvPath  string
	logger   *zap.Logger
}

// NewLoader creates a corpus loader. csvPath may be empty, which skips the
// CSV provider.
func NewLoader(training repository.TrainingRecordRepository, csvPath string, logger *zap.Logger) *Loader {
	return &Loader{training: training, csvPath: csvPath, logger: logger}
}

// Ensure makes sure original training records exist, loading them if
// needed. It is idempotent: once the corpus is in the database, subsequent
// calls report SourceDatabase without touching the other providers.
func (l *Loader) Ensure(ctx context.Context) (*Result, error) {
	count, err := l.training.CountByOrigin(ctx, models.OriginOriginal)
	if err != nil {
		return nil, fmt.Errorf("failed to count original records: %w", err)
	}
	if count > 0 {
		return &Result{Source: SourceDatabase, Records: count}, nil
	}

	if l.csvPath != "" {
		records, err := loadCSV(l.csvPath)
		switch {
		case err == nil && len(records) > 0:
			if err := l.training.Append(ctx, records); err != nil {
				return nil, fmt.Errorf("failed to ingest CSV corpus: %w", err)
			}
			l.logger.Info("Bootstrap corpus ingested from CSV",
				zap.String("path", l.csvPath),
				zap.Int("records", len(records)))
			return &Result{Source: SourceCSV, Records: len(records)}, nil
		case os.IsNotExist(err):
			l.logger.Info("No bootstrap CSV found, falling through",
				zap.String("path", l.csvPath))
		case err != nil:
			return nil, fmt.Errorf("failed to read bootstrap CSV: %w", err)
		}
	}

	seed := seedRecords()
	if err := l.training.Append(ctx, seed); err != nil {
		return nil, fmt.Errorf("failed to ingest seed corpus: %w", err)
	}
	l.logger.Warn("Bootstrap corpus seeded with the built-in sample; load a real dataset before relying on the classifier",
		zap.Int("records", len(seed)))
	return &Result{Source: SourceSeed, Records: len(seed)}, nil
}

// loadCSV reads a text,label corpus file. The first row may be a header.
func loadCSV(path string) ([]models.TrainingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	var records []models.TrainingRecord
	for line := 0; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		if line == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "text") {
			continue
		}

		text := strings.TrimSpace(row[0])
		if text == "" {
			continue
		}
		label, err := parseCorpusLabel(row[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		records = append(records, models.TrainingRecord{
			Text:   text,
			Label:  label,
			Origin: models.OriginOriginal,
		})
	}
	return records, nil
}

// parseCorpusLabel accepts the label spellings seen in public SMS corpora.
func parseCorpusLabel(raw string) (models.Label, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "smishing", "spam", "fraudulent":
		return models.LabelFraudulent, nil
	case "0", "legitimate", "ham":
		return models.LabelLegitimate, nil
	default:
		return models.LabelLegitimate, fmt.Errorf("unknown corpus label %q", raw)
	}
}

// seedRecords is the explicit last-resort sample for empty deployments.
func seedRecords() []models.TrainingRecord {
	type sample struct {
		text  string
		label models.Label
	}
	samples := []sample{
		{"me passa seu cpf preciso urgente", models.LabelFraudulent},
		{"olá, sua conta foi bloqueada. clique no link para desbloquear", models.LabelFraudulent},
		{"parabéns, você ganhou um prêmio! ligue agora", models.LabelFraudulent},
		{"seu cartão foi clonado, confirme sua senha para bloquear", models.LabelFraudulent},
		{"deposite o valor hoje para evitar o cancelamento", models.LabelFraudulent},
		{"atualize seus dados bancários pelo link www.banco-seguro.xyz", models.LabelFraudulent},
		{"última chance de regularizar seu cpf, responda já", models.LabelFraudulent},
		{"você recebeu um pix de r$ 500, clique para resgatar", models.LabelFraudulent},
		{"lembrete: sua consulta é amanhã às 10h", models.LabelLegitimate},
		{"confirmação de agendamento: 12345", models.LabelLegitimate},
		{"seu pedido saiu para entrega", models.LabelLegitimate},
		{"oi, chego em dez minutos", models.LabelLegitimate},
		{"a reunião de amanhã foi adiada para quinta", models.LabelLegitimate},
		{"obrigado pela compra, volte sempre", models.LabelLegitimate},
		{"sua fatura fecha no dia 15", models.LabelLegitimate},
		{"feliz aniversário! tudo de bom", models.LabelLegitimate},
	}
	records := make([]models.TrainingRecord, len(samples))
	for i, s := range samples {
		records[i] = models.TrainingRecord{
			Text:   s.text,
			Label:  s.label,
			Origin: models.OriginOriginal,
		}
	}
	return records
}

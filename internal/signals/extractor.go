package signals

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"smishguard/internal/models"
)

// Signal names, in evaluation order. The reconciliation engine keys its
// override predicates on these.
const (
	NameUrgency        = "urgency"
	NameSensitiveData  = "sensitive_data_request"
	NameMoneyRequest   = "money_request"
	NameSuspiciousLink = "suspicious_link"
	NameLinkPresent    = "link_present"
	NameMalformedText  = "malformed_text"
	NameNumericRun     = "numeric_sequence"
)

// Fixed prior confidences per signal category.
const (
	confidenceUrgency        = 0.85
	confidenceSensitiveData  = 0.99
	confidenceMoneyRequest   = 0.80
	confidenceSuspiciousLink = 0.99
	confidenceLinkPresent    = 0.75
	confidenceMalformedText  = 0.60
	confidenceNumericRun     = 0.70
)

var urgencyKeywords = []string{
	"urgente", "urgent", "rápido", "rapido", "agora mesmo", "imediato",
	"imediatamente", "immediately", "ação rápida", "não demore", "nao demore",
	"apresse", "pressa", "agir já", "agir ja", "último aviso", "ultimo aviso",
	"expira hoje",
}

var sensitiveDataKeywords = []string{
	"senha", "password", "pin", "código de verificação", "codigo de verificacao",
	"código de segurança", "codigo de seguranca", "dados bancários",
	"dados bancarios", "número da conta", "numero da conta", "confirmar dados",
	"verificar conta", "confirme sua senha", "token",
}

var moneyKeywords = []string{
	"transferir", "transferência", "transferencia", "pagar", "pagamento",
	"enviar dinheiro", "depósito", "deposito", "pix", "boleto", "reais",
	"r$", "débito", "debito", "payment", "transfer",
}

// Known URL shortener hosts. A link through any of these is treated as
// suspicious regardless of scheme.
var shortenerHosts = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "t.co", "is.gd", "ow.ly",
	"cutt.ly", "rb.gy", "encurtador.com.br", "shorturl.at",
}

var (
	// Document and card references: CPF/CNPJ/RG, card, CVV, expiry.
	documentPattern = regexp.MustCompile(`(?i)\b(cpf|cnpj|rg|cart[ãa]o|card|cvv|cvc|validade|expiry)\b`)
	urlPattern      = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s]+`)
	digitRunPattern = regexp.MustCompile(`[0-9]{8,}`)
)

// Extract analyzes a raw message and returns the heuristic fraud signals it
// triggers, in fixed evaluation order. The function is deterministic and
// keeps no state; the same message always yields the same signals.
func Extract(message string) []models.DetectedSignal {
	lower := strings.ToLower(message)
	var detected []models.DetectedSignal

	if containsAny(lower, urgencyKeywords) {
		detected = append(detected, models.DetectedSignal{
			Name:        NameUrgency,
			Description: "The message pressures you to act quickly without thinking.",
			Icon:        "🚨",
			Confidence:  confidenceUrgency,
		})
	}

	if containsAny(lower, sensitiveDataKeywords) || documentPattern.MatchString(message) {
		detected = append(detected, models.DetectedSignal{
			Name:        NameSensitiveData,
			Description: "The message asks for sensitive data you should never share.",
			Icon:        "🔐",
			Confidence:  confidenceSensitiveData,
		})
	}

	if containsAny(lower, moneyKeywords) {
		detected = append(detected, models.DetectedSignal{
			Name:        NameMoneyRequest,
			Description: "The message asks for a transfer or payment.",
			Icon:        "💰",
			Confidence:  confidenceMoneyRequest,
		})
	}

	if sig, ok := linkSignal(message); ok {
		detected = append(detected, sig)
	}

	if utf8.RuneCountInString(message) > 50 && hasTypingArtifacts(message) {
		detected = append(detected, models.DetectedSignal{
			Name:        NameMalformedText,
			Description: "The message contains typing or formatting artifacts.",
			Icon:        "✏️",
			Confidence:  confidenceMalformedText,
		})
	}

	if digitRunPattern.MatchString(message) {
		detected = append(detected, models.DetectedSignal{
			Name:        NameNumericRun,
			Description: "The message contains long digit runs that may be accounts or phone numbers.",
			Icon:        "📱",
			Confidence:  confidenceNumericRun,
		})
	}

	return detected
}

// linkSignal classifies the links in a message. Any link with an insecure
// scheme or through a known shortener makes the whole message carry the
// suspicious-link signal; otherwise only the weaker link-present signal is
// emitted. The two are mutually exclusive.
func linkSignal(message string) (models.DetectedSignal, bool) {
	links := urlPattern.FindAllString(message, -1)
	if len(links) == 0 {
		return models.DetectedSignal{}, false
	}

	suspicious := false
	for _, link := range links {
		if isSuspiciousLink(link) {
			suspicious = true
			break
		}
	}

	if suspicious {
		return models.DetectedSignal{
			Name:        NameSuspiciousLink,
			Description: "The message contains an insecure or shortened link.",
			Icon:        "🔗",
			Confidence:  confidenceSuspiciousLink,
		}, true
	}
	return models.DetectedSignal{
		Name:        NameLinkPresent,
		Description: "The message contains links that may lead to malicious sites.",
		Icon:        "🔗",
		Confidence:  confidenceLinkPresent,
	}, true
}

func isSuspiciousLink(link string) bool {
	lower := strings.ToLower(link)

	// Scheme-less www links and plain http are insecure.
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "www.") {
		return true
	}

	host := strings.TrimPrefix(lower, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "www.")
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	for _, shortener := range shortenerHosts {
		if host == shortener {
			return true
		}
	}
	return false
}

func hasTypingArtifacts(message string) bool {
	return strings.Contains(message, "  ") ||
		strings.Contains(message, ",,") ||
		strings.Contains(message, "..")
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

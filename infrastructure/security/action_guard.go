package security

import (
	"strings"

	"hometax_automation/domain/entities"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
)

// defaultRiskKeywords name controls that file, pay or delete something on the portal
var defaultRiskKeywords = []string{
	"신고하기", "제출", "납부하기", "전자납부", "삭제", "취소", "계좌이체", "카드납부",
	"submit", "delete", "remove", "pay",
}

// ActionGuard keeps irreversible clicks with the operator
type ActionGuard struct {
	keywords []string
	logger   *logrus.Logger
}

// NewActionGuard - creates a guard with the default keywords plus extra ones
func NewActionGuard(logger *logrus.Logger, extra ...string) *ActionGuard {
	keywords := make([]string, 0, len(defaultRiskKeywords)+len(extra))
	for _, k := range append(append([]string{}, defaultRiskKeywords...), extra...) {
		if k = normalize(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &ActionGuard{keywords: keywords, logger: logger}
}

// RequiresApproval - reports whether a click on the requested target could be irreversible
func (g *ActionGuard) RequiresApproval(req entities.LocateRequest, action entities.Action) (bool, string) {
	if action.Type != entities.ActionClick {
		return false, ""
	}

	fields := []string{req.Description, req.LinkText, req.OCRText, string(req.Structural)}
	if req.Image != nil {
		fields = append(fields, req.Image.Name)
	}

	for _, field := range fields {
		text := normalize(field)
		if text == "" {
			continue
		}
		for _, keyword := range g.keywords {
			if strings.Contains(text, keyword) {
				g.logger.WithFields(logrus.Fields{
					"target":  req.Label(),
					"keyword": keyword,
				}).Warn("Click needs operator approval")
				return true, keyword
			}
		}
	}
	return false, ""
}

func normalize(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

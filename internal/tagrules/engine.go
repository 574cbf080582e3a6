// Package tagrules evaluates tenant-scoped automatic tag rules against newly
// created messages. A match only touches the tag's usage statistics; the
// message itself is never tagged here.
package tagrules

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"whaticket-crm/internal/models"
)

type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Apply evaluates every automatic tag of the company against the message
// content and context, incrementing usage on each match. It returns the ids
// of the matched tags.
func (e *Engine) Apply(ctx context.Context, companyID int, content string, contextRecord map[string]any) ([]uint, error) {
	tags, err := e.findAutomatic(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var matched []uint
	for i := range tags {
		tag := &tags[i]
		if !Evaluate(tag, content, contextRecord) {
			continue
		}
		if err := e.incrementUsage(ctx, tag); err != nil {
			log.Error().Err(err).Str("tag", tag.Name).Msg("Failed to record tag usage")
			continue
		}
		log.Info().Str("tag", tag.Name).Int("companyID", companyID).Msg("Automatic tag matched")
		matched = append(matched, tag.ID)
	}
	return matched, nil
}

// findAutomatic loads the company's tags flagged for automatic application.
// The flag lives inside the serialized CRM column, so filtering happens here
// rather than in SQL.
func (e *Engine) findAutomatic(ctx context.Context, companyID int) ([]models.Tag, error) {
	var all []models.Tag
	err := e.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("prioridade desc").
		Find(&all).Error
	if err != nil {
		return nil, fmt.Errorf("load tags for company %d: %w", companyID, err)
	}

	var automatic []models.Tag
	for _, t := range all {
		if t.CRM.IsAutomatic {
			automatic = append(automatic, t)
		}
	}
	return automatic, nil
}

func (e *Engine) incrementUsage(ctx context.Context, tag *models.Tag) error {
	now := time.Now()
	tag.CRM.Usage.TotalApplications++
	tag.CRM.Usage.LastUsed = &now
	return e.db.WithContext(ctx).Save(tag).Error
}

// Evaluate reports whether a tag's rules match the message content and
// context. A non-empty keyword list short-circuits on any case-insensitive
// substring hit; otherwise all structured conditions must hold.
func Evaluate(tag *models.Tag, content string, contextRecord map[string]any) bool {
	if !tag.CRM.IsAutomatic {
		return false
	}
	rules := tag.CRM.Rules

	if len(rules.Keywords) > 0 {
		lower := strings.ToLower(content)
		for _, kw := range rules.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return true
			}
		}
	}

	if len(rules.Conditions) > 0 {
		for _, cond := range rules.Conditions {
			if !evaluateCondition(cond, contextRecord) {
				return false
			}
		}
		return true
	}

	return false
}

func evaluateCondition(cond models.TagCondition, contextRecord map[string]any) bool {
	value := lookupPath(contextRecord, cond.Field)
	if value == nil {
		return false
	}
	str := stringify(value)

	switch cond.Operator {
	case "equals":
		return str == cond.Value
	case "contains":
		return strings.Contains(str, cond.Value)
	case "starts_with":
		return strings.HasPrefix(str, cond.Value)
	case "ends_with":
		return strings.HasSuffix(str, cond.Value)
	case "regex":
		re, err := regexp.Compile(cond.Value)
		if err != nil {
			log.Warn().Err(err).Str("pattern", cond.Value).Msg("Invalid tag rule regex")
			return false
		}
		return re.MatchString(str)
	default:
		return false
	}
}

// lookupPath resolves a dot-path like "ticketdata.status" into the context
// record, case-insensitively per segment.
func lookupPath(record map[string]any, path string) any {
	var current any = record
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		v, found := m[segment]
		if !found {
			for k, candidate := range m {
				if strings.EqualFold(k, segment) {
					v, found = candidate, true
					break
				}
			}
		}
		if !found {
			return nil
		}
		current = v
	}
	return current
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

package locator

import (
	"context"
	"fmt"
	"sort"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Loop tries finder strategies in strict priority order and falls back to the operator.
// It keeps no state between calls.
type Loop struct {
	finders  []interfaces.Finder
	operator interfaces.Operator
	logger   *logrus.Logger
}

// NewLoop - creates a locator loop; finders are ordered by kind priority
func NewLoop(operator interfaces.Operator, logger *logrus.Logger, finders ...interfaces.Finder) *Loop {
	ordered := make([]interfaces.Finder, 0, len(finders))
	for _, f := range finders {
		if f != nil {
			ordered = append(ordered, f)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Kind().Priority() < ordered[j].Kind().Priority()
	})

	return &Loop{
		finders:  ordered,
		operator: operator,
		logger:   logger,
	}
}

// Kinds - returns the registered finder kinds in the order they run
func (l *Loop) Kinds() []entities.FinderKind {
	kinds := make([]entities.FinderKind, 0, len(l.finders))
	for _, f := range l.finders {
		kinds = append(kinds, f.Kind())
	}
	return kinds
}

// LocateAndAct runs every finder configured by req until one acts.
// Misses are absorbed; only session faults and interruptions are returned.
// When all finders miss, the operator is asked to act and the outcome is RequiresOperator.
func (l *Loop) LocateAndAct(ctx context.Context, req entities.LocateRequest, action entities.Action) (entities.Outcome, error) {
	outcome, attempted, err := l.attempt(ctx, req, action)
	if err != nil || outcome.Automated() {
		return outcome, err
	}

	prompt := entities.OperatorPrompt{
		Description: req.Label(),
		Action:      action,
		Attempted:   attempted,
	}
	if err := l.operator.Confirm(ctx, prompt); err != nil {
		return entities.Outcome{}, err
	}
	return outcome, nil
}

// TryLocateAndAct - like LocateAndAct, but a full miss returns RequiresOperator without asking anyone.
// Used for shortcuts that have an automated alternative.
func (l *Loop) TryLocateAndAct(ctx context.Context, req entities.LocateRequest, action entities.Action) (entities.Outcome, error) {
	outcome, _, err := l.attempt(ctx, req, action)
	return outcome, err
}

func (l *Loop) attempt(ctx context.Context, req entities.LocateRequest, action entities.Action) (entities.Outcome, []entities.FinderKind, error) {
	log := l.logger.WithFields(logrus.Fields{"target": req.Label(), "action": action.Type})

	if err := req.Validate(); err != nil {
		log.Warn("request has no finders")
		return entities.NewRequiresOperator(), nil, nil
	}

	var attempted []entities.FinderKind
	for _, f := range l.finders {
		if err := ctx.Err(); err != nil {
			return entities.Outcome{}, attempted, err
		}
		if !req.Has(f.Kind()) {
			continue
		}
		attempted = append(attempted, f.Kind())

		log.WithField("finder", f.Kind()).Debug("attempting")
		target, found, err := f.Attempt(ctx, req, action)
		if err != nil {
			if entities.IsFatal(ctx, err) {
				return entities.Outcome{}, attempted, fmt.Errorf("%s finder: %w", f.Kind(), err)
			}
			log.WithField("finder", f.Kind()).WithError(err).Warn("finder failed")
			continue
		}
		if found {
			log.WithField("via", target.Kind).Info("target acted on")
			return entities.NewSucceeded(target), attempted, nil
		}
		log.WithField("finder", f.Kind()).Info("finder missed")
	}
	return entities.NewRequiresOperator(), attempted, nil
}

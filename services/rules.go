package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/upline-app/upline_backend/models"
)

// RuleService manages the single active commission rule. Activation is a
// two-step write (deactivate-all, then insert the new active rule) executed
// inside one atomic unit so readers never observe zero or two active rules.
// The active rule is re-read on every distribution, never cached in process.
type RuleService struct {
	rules  RuleStore
	runner AtomicRunner
	log    *logrus.Logger
}

func NewRuleService(rules RuleStore, runner AtomicRunner, log *logrus.Logger) *RuleService {
	return &RuleService{rules: rules, runner: runner, log: log}
}

// Active returns the currently active rule or ErrNoActiveRule.
func (s *RuleService) Active(ctx context.Context) (*models.ReferralRule, error) {
	return s.rules.Active(ctx)
}

// SetActive activates a new rule with the given parameters. Percentages
// above 1 are interpreted as percent and divided by 100.
func (s *RuleService) SetActive(ctx context.Context, basePercentage float64, decayEnabled bool) (*models.ReferralRule, error) {
	if basePercentage < 0 {
		return nil, ErrInvalidOperation
	}
	if basePercentage > 1 {
		basePercentage = basePercentage / 100
	}
	if basePercentage > 1 {
		return nil, ErrInvalidOperation
	}

	now := time.Now()
	rule := &models.ReferralRule{
		BasePercentage: basePercentage,
		DecayEnabled:   decayEnabled,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.runner.Run(ctx, func(ctx context.Context) error {
		if err := s.rules.DeactivateAll(ctx); err != nil {
			return err
		}
		return s.rules.Insert(ctx, rule)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"basePercentage": basePercentage,
		"decayEnabled":   decayEnabled,
	}).Info("commission rule activated")
	return rule, nil
}

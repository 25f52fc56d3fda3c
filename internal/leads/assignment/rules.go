// Package assignment loads the lead routing configuration (team roster and
// rules) from YAML and exposes it as an assignee pool for auto-assignment.
package assignment

import (
	"context"
	"fmt"
	"os"
	"strings"

	"pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of the assignment configuration.
//
//	assignees:
//	  - id: 6f1c...
//	    name: Sam
//	    email: sam@example.com
//	    active: true
//	    maxOpenLeads: 25
//	rules:
//	  - name: enterprise
//	    companySizes: ["1000+"]
//	    assignees: [6f1c...]
type File struct {
	Assignees []domain.Assignee       `yaml:"assignees"`
	Rules     []domain.AssignmentRule `yaml:"rules"`
}

// OpenLeadCounter reports how many open leads each assignee currently owns.
type OpenLeadCounter interface {
	CountOpenByAssignee(ctx context.Context, organizationID uuid.UUID) (map[uuid.UUID]int, error)
}

// Config is the loaded roster plus rules.
type Config struct {
	assignees []domain.Assignee
	rules     []domain.AssignmentRule
	counter   OpenLeadCounter
}

// Load reads the YAML file at path. An empty path yields an empty roster.
func Load(path string, counter OpenLeadCounter) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return &Config{counter: counter}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assignment rules: %w", err)
	}
	return Parse(raw, counter)
}

// Parse decodes YAML assignment configuration.
func Parse(raw []byte, counter OpenLeadCounter) (*Config, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse assignment rules: %w", err)
	}

	known := make(map[uuid.UUID]bool, len(file.Assignees))
	for _, a := range file.Assignees {
		if a.ID == uuid.Nil {
			return nil, fmt.Errorf("assignee %q has no id", a.Name)
		}
		known[a.ID] = true
	}
	for _, rule := range file.Rules {
		for _, id := range rule.Assignees {
			if !known[id] {
				return nil, fmt.Errorf("rule %q references unknown assignee %s", rule.Name, id)
			}
		}
	}

	return &Config{assignees: file.Assignees, rules: file.Rules, counter: counter}, nil
}

// Rules returns the routing rules in evaluation order.
func (c *Config) Rules() []domain.AssignmentRule {
	return c.rules
}

// Pool returns the roster with current open-lead counts for the organization.
func (c *Config) Pool(ctx context.Context, organizationID uuid.UUID) ([]domain.Assignee, error) {
	pool := make([]domain.Assignee, len(c.assignees))
	copy(pool, c.assignees)
	if c.counter == nil || len(pool) == 0 {
		return pool, nil
	}

	counts, err := c.counter.CountOpenByAssignee(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	for i := range pool {
		pool[i].OpenLeads = counts[pool[i].ID]
	}
	return pool, nil
}

// Lookup finds a roster member by id.
func (c *Config) Lookup(id uuid.UUID) (domain.Assignee, bool) {
	for _, a := range c.assignees {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Assignee{}, false
}

package entitlement

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Source defines how the plan catalog is loaded.
type Source interface {
	Load(ctx context.Context) (map[PlanCode]Plan, error)
}

// inMemSource implements Source using an in-memory plan map.
type inMemSource struct {
	mu    sync.RWMutex
	plans map[PlanCode]Plan
}

// NewInMemSource returns an in-memory Source with a copy of the given plans.
func NewInMemSource(plans map[PlanCode]Plan) Source {
	return &inMemSource{plans: maps.Clone(plans)}
}

// Load returns a copy of all plans.
func (s *inMemSource) Load(ctx context.Context) (map[PlanCode]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.plans), nil
}

// yamlSource reads the plan catalog from a YAML file:
//
//	plans:
//	  - code: BASIC
//	    name: Basic
//	    base_quota: 3
//	  - code: ENTERPRISE
//	    name: Enterprise
//	    base_quota: unlimited
type yamlSource struct {
	path string
}

// NewYAMLSource returns a Source that reads the catalog from path on every Load.
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

type yamlCatalog struct {
	Plans []yamlPlan `yaml:"plans"`
}

type yamlPlan struct {
	Code      PlanCode `yaml:"code"`
	Name      string   `yaml:"name"`
	BaseQuota Quota    `yaml:"base_quota"`
}

func (s *yamlSource) Load(ctx context.Context) (map[PlanCode]Plan, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	return ParseYAMLCatalog(data)
}

// ParseYAMLCatalog decodes a plan catalog document.
func ParseYAMLCatalog(data []byte) (map[PlanCode]Plan, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrInvalidPlanConfiguration, err)
	}

	plans := make(map[PlanCode]Plan, len(doc.Plans))
	for _, p := range doc.Plans {
		code := PlanCode(strings.ToUpper(strings.TrimSpace(string(p.Code))))
		if _, dup := plans[code]; dup {
			return nil, errors.Join(ErrInvalidPlanConfiguration, fmt.Errorf("duplicate plan %s", code))
		}
		plans[code] = Plan{Code: code, Name: p.Name, BaseQuota: p.BaseQuota}
	}
	return plans, nil
}

// UnmarshalYAML accepts a non-negative integer, or "unlimited" for no ceiling.
// An empty value leaves q unset so catalog validation rejects it.
func (q *Quota) UnmarshalYAML(value *yaml.Node) error {
	if strings.EqualFold(strings.TrimSpace(value.Value), "unlimited") {
		*q = Unlimited()
		return nil
	}
	var n uint
	if err := value.Decode(&n); err != nil {
		return errors.Join(ErrInvalidQuota, err)
	}
	*q = Limited(n)
	return nil
}

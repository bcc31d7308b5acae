package aiextract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/planora/planora/internal/plan"
)

// finishPlan turns raw model output into a normalized plan: recover
// the JSON payload, validate its structure, then run it through the
// full normalization pass. Called by every provider so the AI path
// can never hand back an unnormalized plan.
func finishPlan(content string, limits plan.Limits) (*plan.Plan, error) {
	raw, err := parsePlanJSON(content)
	if err != nil {
		return nil, err
	}
	if err := validatePlanJSON(raw); err != nil {
		return nil, err
	}

	var candidate map[string]any
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return nil, fmt.Errorf("failed to decode plan JSON: %w", err)
	}

	p := plan.Normalize(candidate, limits)
	return &p, nil
}

// parsePlanJSON parses JSON from model output, with lightweight
// recovery for markdown code fences and surrounding text.
func parsePlanJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty model output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			normalized, mErr := json.Marshal(parsed)
			if mErr != nil {
				return nil, fmt.Errorf("failed to normalize plan JSON: %w", mErr)
			}
			return normalized, nil
		}
	}

	return nil, fmt.Errorf("failed to parse plan JSON from model output")
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}

	// Drop first fence line.
	lines = lines[1:]
	// Drop trailing fence if present.
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(trimmed, "}")
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

var (
	planSchemaOnce     sync.Once
	planSchemaCompiled *jsonschema.Schema
	planSchemaErr      error
)

// validatePlanJSON checks the recovered JSON against the response
// schema. Scalar type confusion passes (normalization coerces it);
// structural mismatches fail and push the caller to the fallback.
func validatePlanJSON(raw json.RawMessage) error {
	planSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		schemaJSON := mustJSON(planJSONSchema())
		if err := compiler.AddResource("plan.json", bytes.NewReader([]byte(schemaJSON))); err != nil {
			planSchemaErr = fmt.Errorf("failed to load plan schema: %w", err)
			return
		}
		planSchemaCompiled, planSchemaErr = compiler.Compile("plan.json")
	})
	if planSchemaErr != nil {
		return planSchemaErr
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode plan JSON for validation: %w", err)
	}
	if err := planSchemaCompiled.Validate(doc); err != nil {
		return fmt.Errorf("plan JSON does not match schema: %w", err)
	}
	return nil
}

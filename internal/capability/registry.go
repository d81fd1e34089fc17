// Package capability implements a closed registry of ToolCards describing
// the built-in read-only tools exposed to the tool-augmented reasoning
// loop (spec §6). Cards are signed with a JWT so a tampered or
// hand-edited card is rejected at registry construction time.
package capability

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ToolCard describes one entry in the closed tool registry.
type ToolCard struct {
	Name         string                 `json:"name"`
	Version      string                 `json:"version"`
	Description  string                 `json:"description"`
	AgentType    string                 `json:"agent_type"`
	InputSchema  map[string]interface{} `json:"input_schema"`
	OutputSchema map[string]interface{} `json:"output_schema"`
	ReadOnly     bool                   `json:"read_only"`
	CostEstimate float64                `json:"cost_estimate,omitempty"`
	Checksum     string                 `json:"checksum,omitempty"`
	Signature    string                 `json:"-"`
}

// DefaultToolCards returns the built-in read-only ToolCards named in
// spec §6: list_directory, read_file, now.
func DefaultToolCards() []ToolCard {
	schema := func(props map[string]interface{}) map[string]interface{} {
		return map[string]interface{}{
			"$schema":    "https://json-schema.org/draft/2020-12/schema",
			"type":       "object",
			"properties": props,
		}
	}
	return []ToolCard{
		{
			Name:        "list_directory",
			Version:     "v1",
			Description: "Lists directory entries under the project root, filtered by glob.",
			AgentType:   "research",
			ReadOnly:    true,
			InputSchema: schema(map[string]interface{}{
				"path":  map[string]interface{}{"type": "string"},
				"globs": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			}),
			OutputSchema: schema(map[string]interface{}{
				"files":       map[string]interface{}{"type": "array"},
				"directories": map[string]interface{}{"type": "array"},
			}),
		},
		{
			Name:        "read_file",
			Version:     "v1",
			Description: "Reads file contents under the project root, optionally bounded by a line range.",
			AgentType:   "research",
			ReadOnly:    true,
			InputSchema: schema(map[string]interface{}{
				"path":       map[string]interface{}{"type": "string"},
				"line_start": map[string]interface{}{"type": "integer"},
				"line_end":   map[string]interface{}{"type": "integer"},
			}),
			OutputSchema: schema(map[string]interface{}{
				"content": map[string]interface{}{"type": "string"},
			}),
		},
		{
			Name:        "now",
			Version:     "v1",
			Description: "Returns the current wall-clock time in UTC and local.",
			AgentType:   "research",
			ReadOnly:    true,
			InputSchema: schema(map[string]interface{}{}),
			OutputSchema: schema(map[string]interface{}{
				"utc":   map[string]interface{}{"type": "string"},
				"local": map[string]interface{}{"type": "string"},
			}),
		},
	}
}

// toolCardClaims is the JWT claim set used to sign a ToolCard's identity;
// it binds name+version+description so a tampered description fails
// verification even if the name/version survive.
type toolCardClaims struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	jwt.RegisteredClaims
}

// SignToolCard signs the card's identity with the registry's HMAC secret
// and returns the compact JWT to store as ToolCard.Signature.
func SignToolCard(tc ToolCard, secret string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("capability: signing secret is empty")
	}
	claims := toolCardClaims{
		Name:        tc.Name,
		Version:     tc.Version,
		Description: tc.Description,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   "deepwiki-rs-capability-registry",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// checksumPayload is the subset of ToolCard fields covered by
// ComputeChecksum; Checksum and Signature are excluded since they are
// derived from, not part of, the card's identity.
type checksumPayload struct {
	Name         string                 `json:"name"`
	Version      string                 `json:"version"`
	Description  string                 `json:"description"`
	AgentType    string                 `json:"agent_type"`
	InputSchema  map[string]interface{} `json:"input_schema"`
	OutputSchema map[string]interface{} `json:"output_schema"`
	ReadOnly     bool                   `json:"read_only"`
	CostEstimate float64                `json:"cost_estimate"`
}

// ComputeChecksum hashes a ToolCard's identity fields with SHA-256.
// Go's encoding/json sorts map keys when marshaling, so the schema
// fields hash deterministically regardless of construction order.
func ComputeChecksum(tc ToolCard) (string, error) {
	encoded, err := json.Marshal(checksumPayload{
		Name:         tc.Name,
		Version:      tc.Version,
		Description:  tc.Description,
		AgentType:    tc.AgentType,
		InputSchema:  tc.InputSchema,
		OutputSchema: tc.OutputSchema,
		ReadOnly:     tc.ReadOnly,
		CostEstimate: tc.CostEstimate,
	})
	if err != nil {
		return "", fmt.Errorf("capability: compute checksum: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyChecksum recomputes a card's checksum and compares it against
// the stored one, catching a hand-edited card even when it carries no
// signature.
func VerifyChecksum(tc ToolCard) error {
	want, err := ComputeChecksum(tc)
	if err != nil {
		return err
	}
	if want != tc.Checksum {
		return fmt.Errorf("capability: checksum mismatch for %s@%s", tc.Name, tc.Version)
	}
	return nil
}

// jsonSchemaTypes are the draft 2020-12 primitive type names accepted
// in a ToolCard's InputSchema/OutputSchema "type" field.
var jsonSchemaTypes = map[string]bool{
	"object": true, "array": true, "string": true,
	"number": true, "integer": true, "boolean": true, "null": true,
}

func validateSchema(schema map[string]interface{}) error {
	if schema == nil {
		return fmt.Errorf("capability: schema is required")
	}
	t, ok := schema["type"].(string)
	if !ok {
		return fmt.Errorf("capability: schema \"type\" must be a string")
	}
	if !jsonSchemaTypes[t] {
		return fmt.Errorf("capability: schema type %q is not a recognized JSON Schema type", t)
	}
	return nil
}

// ValidateToolCard checks that a card is well-formed before it is
// eligible for registration: identity fields present, both schemas
// valid, and the cost estimate non-negative.
func ValidateToolCard(tc ToolCard) error {
	if strings.TrimSpace(tc.Name) == "" {
		return fmt.Errorf("capability: tool card is missing a name")
	}
	if strings.TrimSpace(tc.Version) == "" {
		return fmt.Errorf("capability: tool card %s is missing a version", tc.Name)
	}
	if err := validateSchema(tc.InputSchema); err != nil {
		return fmt.Errorf("capability: %s@%s: input schema: %w", tc.Name, tc.Version, err)
	}
	if err := validateSchema(tc.OutputSchema); err != nil {
		return fmt.Errorf("capability: %s@%s: output schema: %w", tc.Name, tc.Version, err)
	}
	if tc.CostEstimate < 0 {
		return fmt.Errorf("capability: %s@%s: cost estimate must not be negative", tc.Name, tc.Version)
	}
	return nil
}

func validateSignature(tc ToolCard, secret string) error {
	if strings.TrimSpace(secret) == "" {
		// No signing secret configured: registry runs unsigned, trusting
		// the closed DefaultToolCards() set compiled into the binary.
		return nil
	}
	claims := &toolCardClaims{}
	token, err := jwt.ParseWithClaims(tc.Signature, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("signature invalid: %w", err)
	}
	if claims.Name != tc.Name || claims.Version != tc.Version || claims.Description != tc.Description {
		return fmt.Errorf("signature does not match card identity")
	}
	return nil
}

// Registry holds validated ToolCards keyed by tool name.
type Registry struct {
	tools map[string]ToolCard
}

// ErrToolMissing indicates a required tool is not registered.
var ErrToolMissing = fmt.Errorf("required tool missing")

// NewRegistry validates ToolCards and ensures the required set is present.
// Cards are only signature- or checksum-checked when they carry one; the
// compiled-in DefaultToolCards() may be registered unsigned and
// unchecksummed, trusting the binary it shipped in. When multiple cards
// share a name, the one with the highest Version wins, regardless of
// slice order.
func NewRegistry(cards []ToolCard, signingSecret string, required []string) (*Registry, error) {
	reg := &Registry{tools: make(map[string]ToolCard, len(cards))}
	for _, tc := range cards {
		if err := ValidateToolCard(tc); err != nil {
			return nil, err
		}
		if tc.Checksum != "" {
			if err := VerifyChecksum(tc); err != nil {
				return nil, err
			}
		}
		if tc.Signature != "" {
			if err := validateSignature(tc, signingSecret); err != nil {
				return nil, fmt.Errorf("capability: tool %s@%s: %w", tc.Name, tc.Version, err)
			}
		}
		if existing, ok := reg.tools[tc.Name]; !ok || versionLess(existing.Version, tc.Version) {
			reg.tools[tc.Name] = tc
		}
	}
	if len(required) == 0 {
		required = []string{"list_directory", "read_file", "now"}
	}
	for _, r := range required {
		if _, ok := reg.tools[r]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrToolMissing, r)
		}
	}
	return reg, nil
}

// versionLess reports whether a is an older version than b, comparing
// "vMAJOR.MINOR.PATCH"-style strings component by component and falling
// back to a plain string comparison when either side doesn't parse.
func versionLess(a, b string) bool {
	pa, okA := parseVersion(a)
	pb, okB := parseVersion(b)
	if !okA || !okB {
		return a < b
	}
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			return pa[i] < pb[i]
		}
	}
	return len(pa) < len(pb)
}

func parseVersion(v string) ([]int, bool) {
	v = strings.TrimPrefix(v, "v")
	parts := strings.Split(v, ".")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n := 0
		for _, c := range p {
			if c < '0' || c > '9' {
				return nil, false
			}
			n = n*10 + int(c-'0')
		}
		nums = append(nums, n)
	}
	return nums, len(nums) > 0
}

// Tool returns the ToolCard for a tool name.
func (r *Registry) Tool(name string) (ToolCard, bool) {
	if r == nil {
		return ToolCard{}, false
	}
	tc, ok := r.tools[name]
	return tc, ok
}

// Names returns the registered tool names in the registry.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	return names
}

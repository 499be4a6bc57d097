package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxNodes        = 100_000
	MaxNodeIDLength = 256
	MaxStrategyLen  = 64
	MaxOptions      = 32

	strategyPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

func init() {
	validate = validator.New()
}

// FrameRequest is a request to compute one layout frame. The engine itself
// tolerates almost anything; these bounds protect the HTTP surface from
// oversized or garbage payloads before any work happens.
type FrameRequest struct {
	NodeIDs       []string            `json:"nodeIds" validate:"omitempty"`
	Adjacency     map[string][]string `json:"adjacencyByNodeId" validate:"omitempty"`
	PreviousState []byte              `json:"previousState,omitempty"`
	Strategy      string              `json:"strategy" validate:"omitempty,max=64"`
	Options       map[string]float64  `json:"strategyConfig" validate:"omitempty,max=32"`
}

// ValidateFrameRequest validates a frame computation request.
func ValidateFrameRequest(req *FrameRequest) error {
	if req == nil {
		return errors.New("frame request cannot be nil")
	}

	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	if len(req.NodeIDs) > MaxNodes {
		return fmt.Errorf("nodeIds: maximum %d nodes allowed, got %d", MaxNodes, len(req.NodeIDs))
	}
	for i, id := range req.NodeIDs {
		if id == "" {
			return fmt.Errorf("nodeIds: empty node id at index %d", i)
		}
		if len(id) > MaxNodeIDLength {
			return fmt.Errorf("nodeIds: node id at index %d exceeds maximum length of %d characters", i, MaxNodeIDLength)
		}
	}

	for key, neighbors := range req.Adjacency {
		if key == "" {
			return errors.New("adjacencyByNodeId: empty node id key")
		}
		if len(key) > MaxNodeIDLength {
			return fmt.Errorf("adjacencyByNodeId: node id %q exceeds maximum length of %d characters", key, MaxNodeIDLength)
		}
		if len(neighbors) > MaxNodes {
			return fmt.Errorf("adjacencyByNodeId: node %q lists %d neighbors, maximum %d", key, len(neighbors), MaxNodes)
		}
	}

	if req.Strategy != "" && !strategyPattern.MatchString(req.Strategy) {
		return fmt.Errorf("strategy: %q contains invalid characters (lowercase letters, digits, underscore, hyphen)", req.Strategy)
	}

	return nil
}

// ValidateSessionID validates a session identifier from a URL path.
func ValidateSessionID(id string) error {
	if id == "" {
		return errors.New("session id cannot be empty")
	}
	if len(id) > 128 {
		return errors.New("session id exceeds maximum length of 128 characters")
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("session id contains invalid character %q", r)
		}
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}

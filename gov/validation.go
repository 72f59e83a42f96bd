package gov

import (
	"context"
	"errors"
	"fmt"
)

var ErrDifferentAppID = errors.New("app id in the msg does not match the proposal app id")

// ProposalError carries the registry's reason for refusing an action.
type ProposalError struct {
	Err string
}

func (e *ProposalError) Error() string {
	return fmt.Sprintf("proposal error: %s", e.Err)
}

type ValidateRequest struct {
	Tag    string `json:"tag"`
	Action Action `json:"action"`
}

type ValidateResponse struct {
	Found bool   `json:"found"`
	Err   string `json:"err"`
}

// Validator answers whether an action is eligible. Implementations are
// expected to be read-only.
type Validator interface {
	Validate(ctx context.Context, req *ValidateRequest) (*ValidateResponse, error)
}

// ValidateAction fails with ErrDifferentAppID before querying v when the
// action targets another app.
func ValidateAction(ctx context.Context, v Validator, appID uint64, action Action) error {
	if action.AppMapping() != appID {
		return ErrDifferentAppID
	}
	res, err := v.Validate(ctx, &ValidateRequest{Tag: action.Tag(), Action: action})
	if err != nil {
		return fmt.Errorf("validate %s: %w", action.Tag(), err)
	}
	if !res.Found {
		return &ProposalError{Err: res.Err}
	}
	return nil
}

// ValidateMsgs checks every msg in order and stops at the first failure.
func ValidateMsgs(ctx context.Context, v Validator, appID uint64, msgs []Msg) error {
	for _, m := range msgs {
		action, err := m.Action()
		if err != nil {
			return err
		}
		if err = ValidateAction(ctx, v, appID, action); err != nil {
			return err
		}
	}
	return nil
}

// CheckAppIDs runs only the app id guard; it needs no registry.
func CheckAppIDs(appID uint64, msgs []Msg) error {
	for _, m := range msgs {
		action, err := m.Action()
		if err != nil {
			return err
		}
		if action.AppMapping() != appID {
			return ErrDifferentAppID
		}
	}
	return nil
}

package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ActivateAccountMessage struct {
	Key        string `json:"key" example:"nWq3fF0tYcO2aH8kUzR1sg" doc:"Activation key from the emailed link"`
	OnResponse func(a *ActivateAccountResponse)
}

func (e ActivateAccountMessage) Type() string { return "account.activate" }

type ActivateAccountResponse struct {
	Found     bool     `json:"found" example:"true" doc:"Has the activation record been found?"`
	Activated bool     `json:"activated" example:"true" doc:"Did the account become active?"`
	Email     string   `json:"email,omitempty" doc:"Activated address, set on success."`
	Errors    []string `json:"errors" example:"['could not activate']" doc:"Error messages."`
}

// ActivateAccountHandler resolves the key to its activation record and
// attempts the confirm-and-activate transition. An unknown key and an
// expired or terminal record both surface as a generic failure; the
// response never reveals which condition blocked activation.
type ActivateAccountHandler struct {
	repo   RepositoryManager
	flow   *ActivationFlow
	logger Logger
}

func NewActivateAccountHandler(repo RepositoryManager, flow *ActivationFlow) *ActivateAccountHandler {
	return &ActivateAccountHandler{
		repo:   repo,
		flow:   flow,
		logger: defLogger{},
	}
}

func (h *ActivateAccountHandler) WithLogger(logger Logger) *ActivateAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ActivateAccountHandler) Execute(ctx context.Context, event ActivateAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account activation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivateAccountHandler) execute(ctx context.Context, event ActivateAccountMessage) error {
	resp := &ActivateAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record, err := h.repo.Activations().GetByKey(ctx, event.Key)
	if err != nil {
		// an unknown key is part of the expected flow, not an application error
		if goerrors.IsNotFound(err) {
			resp.Errors = append(resp.Errors, "could not activate")
			h.respond(event, resp)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve activation record")
	}

	resp.Found = true

	activated, err := h.flow.Activate(ctx, record)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to execute account activation")
	}

	resp.Activated = activated
	if activated {
		resp.Email = record.Email
	} else {
		resp.Errors = append(resp.Errors, "could not activate")
	}

	h.respond(event, resp)
	return nil
}

func (h *ActivateAccountHandler) respond(event ActivateAccountMessage, resp *ActivateAccountResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}

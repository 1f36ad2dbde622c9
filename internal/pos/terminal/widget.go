package terminal

import (
	"context"
	"fmt"
	"strings"

	"restro-pos/internal/pos/gateway"
)

// PromptWidget collects the gateway callback from the operator at the terminal.
// Typing "cancel" at any prompt dismisses the payment.
type PromptWidget struct {
	prompt *prompter
}

var _ gateway.Widget = (*PromptWidget)(nil)

func (w *PromptWidget) Open(ctx context.Context, p gateway.Prefill) (gateway.Callback, error) {
	fmt.Fprintf(w.prompt.out, "\n%s\n", p.Description)
	fmt.Fprintf(w.prompt.out, "Gateway order %s: %d %s (minor units)\n", p.Order.ID, p.Order.Amount, p.Order.Currency)
	if p.Name != "" {
		fmt.Fprintf(w.prompt.out, "Customer: %s %s\n", p.Name, p.Contact)
	}

	paymentID, err := w.ask(ctx, "payment id")
	if err != nil {
		return gateway.Callback{}, err
	}
	signature, err := w.ask(ctx, "signature")
	if err != nil {
		return gateway.Callback{}, err
	}
	return gateway.Callback{PaymentID: paymentID, Signature: signature}, nil
}

func (w *PromptWidget) ask(ctx context.Context, label string) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		answer, ok := w.prompt.ask(label + " (or cancel): ")
		if !ok {
			return "", gateway.ErrDismissed
		}
		answer = strings.TrimSpace(answer)
		switch {
		case strings.EqualFold(answer, "cancel"):
			return "", gateway.ErrDismissed
		case answer != "":
			return answer, nil
		}
	}
}

package sink

import (
	"context"

	"mongosink/internal/constants"
	"mongosink/pkg/cel"
	"mongosink/pkg/errors"
	"mongosink/pkg/models"
)

// CollectionResolver picks the target collection for a message.
type CollectionResolver interface {
	Resolve(ctx context.Context, msg *models.Message) (string, error)
}

// NewResolver returns an expression resolver when expression is set, and a
// literal resolver otherwise. An empty collection falls back to the default.
func NewResolver(collection, expression string) (CollectionResolver, error) {
	if expression != "" {
		return NewExpressionResolver(expression)
	}
	return NewLiteralResolver(collection), nil
}

type LiteralResolver struct {
	name string
}

func NewLiteralResolver(name string) *LiteralResolver {
	if name == "" {
		name = constants.DefaultCollection
	}
	return &LiteralResolver{name: name}
}

func (r *LiteralResolver) Resolve(_ context.Context, _ *models.Message) (string, error) {
	return r.name, nil
}

func (r *LiteralResolver) String() string {
	return r.name
}

// ExpressionResolver evaluates a CEL expression over the message headers,
// payload, topic and key.
type ExpressionResolver struct {
	evaluator *cel.Evaluator
	program   *cel.Program
}

func NewExpressionResolver(expression string) (*ExpressionResolver, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, errors.ErrConfiguration.WithCause(err)
	}

	program, err := evaluator.CompileString(expression)
	if err != nil {
		return nil, errors.ErrConfiguration.
			WithCause(err).
			WithMessage("invalid collection expression %q", expression)
	}

	return &ExpressionResolver{evaluator: evaluator, program: program}, nil
}

func (r *ExpressionResolver) Resolve(ctx context.Context, msg *models.Message) (string, error) {
	result, err := r.evaluator.Evaluate(ctx, r.program, msg)
	if err != nil {
		return "", errors.ErrConfiguration.
			WithCause(err).
			WithMessage("collection expression %q failed", r.program)
	}

	if result == nil {
		return "", errors.ErrConfiguration.
			WithMessage("collection expression %q must not evaluate to null", r.program)
	}

	name, ok := result.(string)
	if !ok {
		return "", errors.ErrConfiguration.
			WithMessage("collection expression %q evaluated to %T, want string", r.program, result)
	}

	if name == "" {
		return "", errors.ErrConfiguration.
			WithMessage("collection expression %q evaluated to an empty name", r.program)
	}

	return name, nil
}

func (r *ExpressionResolver) String() string {
	return r.program.String()
}

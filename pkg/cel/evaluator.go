package cel

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/ext"
	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/bson"

	"mongosink/pkg/models"
)

type Evaluator struct {
	env *cel.Env
}

// Program is a compiled expression ready to be evaluated against messages.
type Program struct {
	expression string
	program    cel.Program
}

func (p *Program) String() string {
	return p.expression
}

func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		ext.Strings(),
		cel.Variable("headers", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("payload", cel.DynType),
		cel.Variable("topic", cel.StringType),
		cel.Variable("key", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

// ValidateStringExpression rejects expressions that can never produce a string.
func (e *Evaluator) ValidateStringExpression(expression string) error {
	_, err := e.CompileString(expression)
	return err
}

// CompileString compiles an expression whose result must be a string. Dyn
// results are accepted and checked at evaluation time.
func (e *Evaluator) CompileString(expression string) (*Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL expression: %w", issues.Err())
	}

	if out := ast.OutputType(); out != cel.StringType && out != cel.DynType {
		return nil, fmt.Errorf("expression must return string, got %v", out)
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &Program{expression: expression, program: program}, nil
}

// Evaluate runs the program against msg. A CEL null result is returned as nil.
func (e *Evaluator) Evaluate(ctx context.Context, p *Program, msg *models.Message) (interface{}, error) {
	result, _, err := p.program.ContextEval(ctx, MessageVars(msg))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}

	if _, isNull := result.(types.Null); isNull {
		return nil, nil
	}

	return result.Value(), nil
}

// MessageVars builds the activation for msg. JSON object payloads delivered as
// text are exposed as maps so that payload fields can be selected.
func MessageVars(msg *models.Message) map[string]interface{} {
	headers := make(map[string]interface{}, len(msg.Headers))
	for name := range msg.Headers {
		value, _ := msg.HeaderString(name)
		headers[name] = value
	}

	return map[string]interface{}{
		"headers": headers,
		"payload": payloadValue(msg.Payload),
		"topic":   msg.Topic,
		"key":     string(msg.Key),
	}
}

func payloadValue(payload interface{}) interface{} {
	switch v := payload.(type) {
	case nil:
		return types.NullValue
	case []byte:
		return textValue(string(v))
	case string:
		return textValue(v)
	case bson.D:
		return documentToMap(v)
	case bson.M:
		return map[string]interface{}(v)
	default:
		return v
	}
}

func textValue(text string) interface{} {
	if gjson.Valid(text) {
		if parsed := gjson.Parse(text); parsed.IsObject() {
			return parsed.Value()
		}
	}
	return text
}

func documentToMap(doc bson.D) map[string]interface{} {
	m := make(map[string]interface{}, len(doc))
	for _, elem := range doc {
		if nested, ok := elem.Value.(bson.D); ok {
			m[elem.Key] = documentToMap(nested)
			continue
		}
		m[elem.Key] = elem.Value
	}
	return m
}

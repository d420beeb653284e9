package agent

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/dvloznov/statement-agent/internal/query"
)

const dateLayout = "2006-01-02"

// filterProperties are the schema fields shared by the filtering operations.
func filterProperties() map[string]*genai.Schema {
	return map[string]*genai.Schema{
		"start_date": {
			Type:        genai.TypeString,
			Description: "Inclusive lower date bound, ISO format YYYY-MM-DD.",
		},
		"end_date": {
			Type:        genai.TypeString,
			Description: "Inclusive upper date bound, ISO format YYYY-MM-DD.",
		},
		"min_amount": {
			Type:        genai.TypeNumber,
			Description: "Inclusive lower bound on the signed amount (debits are negative).",
		},
		"max_amount": {
			Type:        genai.TypeNumber,
			Description: "Inclusive upper bound on the signed amount (debits are negative).",
		},
		"description_contains": {
			Type:        genai.TypeString,
			Description: "Case-insensitive substring the description must contain.",
		},
	}
}

// toolDeclarations exposes the four ledger operations to the model. The set
// is closed on purpose: the model can only pick a declared operation, never
// run code.
func toolDeclarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        string(query.OpListTransactions),
			Description: "List statement transactions, optionally filtered by date range, signed amount bounds, and description substring. Each result has date, description, signed amount, and running balance when present.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: filterProperties(),
			},
		},
		{
			Name:        string(query.OpSummarize),
			Description: "Summarize the statement: account holder, opening and closing balance, total debits and credits, period, and transaction count.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{},
			},
		},
		{
			Name:        string(query.OpLargestOfKind),
			Description: "Find the single largest debit or credit, optionally within a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"kind": {
						Type:        genai.TypeString,
						Enum:        []string{string(query.KindDebit), string(query.KindCredit)},
						Description: "Which side to search: debit (money out) or credit (money in).",
					},
					"start_date": {Type: genai.TypeString, Description: "Inclusive lower date bound, YYYY-MM-DD."},
					"end_date":   {Type: genai.TypeString, Description: "Inclusive upper date bound, YYYY-MM-DD."},
				},
				Required: []string{"kind"},
			},
		},
		{
			Name:        string(query.OpTotalByFilter),
			Description: "Sum the signed amounts of the transactions matching the same filters as list_transactions.",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: filterProperties(),
			},
		},
	}
}

// decodeRequest maps a model function call onto a query request.
func decodeRequest(name string, args map[string]any) (query.Request, error) {
	req := query.Request{Op: query.Op(name)}

	if kind, ok := args["kind"]; ok {
		s, ok := kind.(string)
		if !ok {
			return query.Request{}, fmt.Errorf("field \"kind\" has type %T, want string", kind)
		}
		req.Kind = query.Kind(s)
	}

	var err error
	if req.Filter.StartDate, err = optionalDate(args, "start_date"); err != nil {
		return query.Request{}, err
	}
	if req.Filter.EndDate, err = optionalDate(args, "end_date"); err != nil {
		return query.Request{}, err
	}
	if req.Filter.MinAmount, err = optionalAmount(args, "min_amount"); err != nil {
		return query.Request{}, err
	}
	if req.Filter.MaxAmount, err = optionalAmount(args, "max_amount"); err != nil {
		return query.Request{}, err
	}
	if s, ok := args["description_contains"].(string); ok {
		req.Filter.DescriptionContains = s
	}

	return req, nil
}

func optionalDate(args map[string]any, key string) (*time.Time, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("field %q has type %T, want string", key, v)
	}
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("field %q: invalid date %q, want YYYY-MM-DD", key, s)
	}
	return &t, nil
}

func optionalAmount(args map[string]any, key string) (*decimal.Decimal, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case float64:
		d := decimal.NewFromFloat(val)
		return &d, nil
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return nil, fmt.Errorf("field %q: invalid amount %q", key, val)
		}
		return &d, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}

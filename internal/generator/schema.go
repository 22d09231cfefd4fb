package generator

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "schema://generated-question.json"

// questionSchema constrains only the required fields of a generated
// question. Null is not an accepted type for them, so a null counts as
// absent. Optional fields are left to convert, which defaults them.
const questionSchema = `{
  "type": "object",
  "required": ["question_content", "question_type", "difficulty", "correct_answer"],
  "properties": {
    "question_content": {"type": "string", "minLength": 1},
    "question_type": {"type": "string", "minLength": 1},
    "difficulty": {"type": ["number", "string"]},
    "correct_answer": {"type": ["string", "number", "boolean"], "minLength": 1}
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(questionSchema), &def); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// validate checks one decoded element against the question schema.
func validate(v any) error {
	s, err := schema()
	if err != nil {
		return err
	}
	return s.Validate(v)
}

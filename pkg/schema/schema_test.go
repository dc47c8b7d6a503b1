package schema

import "testing"

const testSchema = `{
  "type": "object",
  "required": ["platform", "metrics"],
  "properties": {
    "platform": {"type": "string"},
    "metrics": {
      "type": "object",
      "additionalProperties": {"type": "number"}
    }
  }
}`

func TestValidateBytes_Valid(t *testing.T) {
	doc := []byte(`{"platform":"qemu-q35","metrics":{"input.latency.p99_us":1800}}`)
	errs, err := ValidateBytes(testSchema, doc)
	if err != nil {
		t.Fatalf("ValidateBytes: %v", err)
	}
	if len(errs) != 0 {
		t.Errorf("unexpected validation errors: %v", errs)
	}
}

func TestValidateBytes_MissingMetrics(t *testing.T) {
	doc := []byte(`{"platform":"qemu-q35"}`)
	errs, err := ValidateBytes(testSchema, doc)
	if err != nil {
		t.Fatalf("ValidateBytes: %v", err)
	}
	if len(errs) == 0 {
		t.Error("expected validation errors for missing metrics")
	}
}

func TestValidateBytes_WrongValueType(t *testing.T) {
	doc := []byte(`{"platform":"qemu-q35","metrics":{"input.latency.p99_us":"fast"}}`)
	errs, err := ValidateBytes(testSchema, doc)
	if err != nil {
		t.Fatalf("ValidateBytes: %v", err)
	}
	if len(errs) == 0 {
		t.Error("expected validation errors for non-numeric metric")
	}
}

func TestValidateBytes_MalformedJSON(t *testing.T) {
	_, err := ValidateBytes(testSchema, []byte(`{not json`))
	if err == nil {
		t.Fatal("expected error for malformed document")
	}
}

package cliparse

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/fatih/structs"
)

// Database types accepted by db.Open
var databaseTypes = map[string]bool{
	"sqlite":   true,
	"postgres": true,
	"pgx":      true,
}

// ComplexValidator validates the field kinds multiconfig doesn't understand,
// selected by the "validate" struct tag.
type ComplexValidator struct {
	TagName string
}

// Validate implements the multiconfig.Validator interface.
func (v *ComplexValidator) Validate(s interface{}) error {
	if v.TagName == "" {
		v.TagName = "validate"
	}

	for _, field := range structs.Fields(s) {
		if err := v.processField("", field); err != nil {
			return err
		}
	}

	return nil
}

func (v *ComplexValidator) processField(fieldName string, field *structs.Field) error {
	fieldName += field.Name()
	if field.Kind() == reflect.Struct {
		for _, f := range field.Fields() {
			if err := v.processField(fieldName+".", f); err != nil {
				return err
			}
		}
		return nil
	}

	if field.IsZero() {
		return nil
	}

	switch strings.ToLower(field.Tag(v.TagName)) {
	case "":
		return nil
	case "duration":
		if _, err := time.ParseDuration(field.Value().(string)); err != nil {
			return fmt.Errorf("could not validate %s: %s", fieldName, err.Error())
		}
	case "uint":
		if field.Value().(int) < 0 {
			return fmt.Errorf("%s is less than zero", fieldName)
		}
	case "dbtype":
		if !databaseTypes[field.Value().(string)] {
			return fmt.Errorf("%s must be one of sqlite, postgres, pgx", fieldName)
		}
	default:
		return fmt.Errorf("cannot validate type '%s'", field.Tag(v.TagName))
	}

	return nil
}

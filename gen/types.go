package gen

import (
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/quarry/dialect/sql/schema"
)

var titler = cases.Title(language.Und)

// initialisms are column-name parts kept fully upper-cased in identifiers.
var initialisms = map[string]string{
	"id":   "ID",
	"uuid": "UUID",
	"json": "JSON",
	"url":  "URL",
	"uri":  "URI",
	"api":  "API",
	"http": "HTTP",
	"sql":  "SQL",
	"db":   "DB",
	"ip":   "IP",
}

// entityName derives the exported entity name from the table name, e.g.
// "order_items" becomes "OrderItem".
func entityName(table string) string {
	return fieldName(inflect.Singularize(table))
}

// fieldName derives the exported field name from a column name, e.g.
// "user_id" becomes "UserID".
func fieldName(column string) string {
	parts := strings.Split(column, "_")
	for i, p := range parts {
		if up, ok := initialisms[strings.ToLower(p)]; ok {
			parts[i] = up
			continue
		}
		parts[i] = titler.String(p)
	}
	return strings.Join(parts, "")
}

// enumConstName derives the constant suffix from an enum value, e.g.
// "in_progress" becomes "InProgress".
func enumConstName(value string) string {
	value = strings.NewReplacer("-", "_", " ", "_").Replace(value)
	return fieldName(value)
}

// goType maps a column to the Go type of its row-struct field. Nullable
// columns map to pointers so NULL stays distinguishable from the zero value.
func goType(c *schema.Column) jen.Code {
	base := baseType(c.Type)
	if c.Nullable {
		return jen.Op("*").Add(base)
	}
	return base
}

func baseType(t schema.ColumnType) jen.Code {
	switch t.Kind {
	case schema.KindVarchar, schema.KindChar, schema.KindText, schema.KindEnum:
		return jen.String()
	case schema.KindInt, schema.KindSmallInt, schema.KindSerial:
		return jen.Int()
	case schema.KindBigInt, schema.KindBigSerial:
		return jen.Int64()
	case schema.KindBool:
		return jen.Bool()
	case schema.KindDecimal, schema.KindFloat, schema.KindDouble:
		return jen.Float64()
	case schema.KindDate, schema.KindTime, schema.KindTimestamp, schema.KindTimestampTZ:
		return jen.Qual("time", "Time")
	case schema.KindBinary, schema.KindBlob:
		return jen.Index().Byte()
	case schema.KindJSON, schema.KindJSONB:
		return jen.Qual("encoding/json", "RawMessage")
	case schema.KindUUID:
		return jen.Qual("github.com/google/uuid", "UUID")
	default:
		return jen.String()
	}
}

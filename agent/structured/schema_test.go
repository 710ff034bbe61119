package structured

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema(t *testing.T) {
	tests := []struct {
		name     string
		schemaFn func() *JSONSchema
		wantType SchemaType
	}{
		{"string", NewStringSchema, TypeString},
		{"number", NewNumberSchema, TypeNumber},
		{"integer", NewIntegerSchema, TypeInteger},
		{"boolean", NewBooleanSchema, TypeBoolean},
		{"object", NewObjectSchema, TypeObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := tt.schemaFn()
			assert.Equal(t, tt.wantType, schema.Type)
		})
	}
}

func TestNewArraySchema(t *testing.T) {
	items := NewStringSchema()
	schema := NewArraySchema(items)

	assert.Equal(t, TypeArray, schema.Type)
	assert.Equal(t, items, schema.Items)
}

func TestNewEnumSchema(t *testing.T) {
	schema := NewEnumSchema("a", "b", "c")

	assert.Equal(t, []any{"a", "b", "c"}, schema.Enum)
}

func TestObjectSchemaBuilder(t *testing.T) {
	schema := NewObjectSchema().
		WithTitle("Hotel").
		WithDescription("A hotel recommendation").
		AddProperty("name", NewStringSchema().WithMinLength(1)).
		AddProperty("price_per_night", NewNumberSchema().WithMinimum(0)).
		AddProperty("amenities", NewArraySchema(NewStringSchema())).
		AddRequired("name", "price_per_night")

	assert.Equal(t, "Hotel", schema.Title)
	assert.Equal(t, "A hotel recommendation", schema.Description)
	assert.Len(t, schema.Properties, 3)
	assert.Equal(t, []string{"name", "price_per_night"}, schema.Required)

	// 检查 name 属性
	nameProp := schema.GetProperty("name")
	require.NotNil(t, nameProp)
	assert.Equal(t, TypeString, nameProp.Type)
	assert.Equal(t, 1, *nameProp.MinLength)

	// 检查 price_per_night 属性
	priceProp := schema.GetProperty("price_per_night")
	require.NotNil(t, priceProp)
	assert.Equal(t, TypeNumber, priceProp.Type)
	assert.Equal(t, 0.0, *priceProp.Minimum)

	// 检查 amenities 属性
	amenProp := schema.GetProperty("amenities")
	require.NotNil(t, amenProp)
	assert.Equal(t, TypeArray, amenProp.Type)
	assert.Nil(t, amenProp.MinItems)
}

func TestStringSchemaConstraints(t *testing.T) {
	schema := NewStringSchema().
		WithMinLength(5).
		WithMaxLength(100).
		WithPattern("^[a-z]+$").
		WithFormat(FormatEmail)

	assert.Equal(t, 5, *schema.MinLength)
	assert.Equal(t, 100, *schema.MaxLength)
	assert.Equal(t, "^[a-z]+$", schema.Pattern)
	assert.Equal(t, FormatEmail, schema.Format)
}

func TestNumericSchemaConstraints(t *testing.T) {
	schema := NewNumberSchema().
		WithMinimum(0).
		WithMaximum(100).
		WithExclusiveMinimum(-1).
		WithExclusiveMaximum(101)

	assert.Equal(t, 0.0, *schema.Minimum)
	assert.Equal(t, 100.0, *schema.Maximum)
	assert.Equal(t, -1.0, *schema.ExclusiveMinimum)
	assert.Equal(t, 101.0, *schema.ExclusiveMaximum)
}

func TestArraySchemaConstraints(t *testing.T) {
	schema := NewArraySchema(NewStringSchema()).
		WithMinItems(1).
		WithMaxItems(10).
		WithUniqueItems(true)

	assert.Equal(t, 1, *schema.MinItems)
	assert.Equal(t, 10, *schema.MaxItems)
	assert.True(t, *schema.UniqueItems)
}

func TestAdditionalPropertiesMarshal(t *testing.T) {
	t.Run("boolean false", func(t *testing.T) {
		schema := NewObjectSchema().WithAdditionalProperties(false)
		data, err := schema.ToJSON()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"additionalProperties":false`)
	})

	t.Run("boolean true", func(t *testing.T) {
		schema := NewObjectSchema().WithAdditionalProperties(true)
		data, err := schema.ToJSON()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"additionalProperties":true`)
	})

	t.Run("schema", func(t *testing.T) {
		schema := NewObjectSchema().WithAdditionalPropertiesSchema(NewStringSchema())
		data, err := schema.ToJSON()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"additionalProperties":{"type":"string"}`)
	})
}

func TestAdditionalPropertiesUnmarshal(t *testing.T) {
	t.Run("boolean", func(t *testing.T) {
		var ap AdditionalProperties
		err := json.Unmarshal([]byte(`false`), &ap)
		require.NoError(t, err)
		assert.False(t, ap.Allowed)
		assert.Nil(t, ap.Schema)
	})

	t.Run("schema", func(t *testing.T) {
		var ap AdditionalProperties
		err := json.Unmarshal([]byte(`{"type":"integer"}`), &ap)
		require.NoError(t, err)
		assert.True(t, ap.Allowed)
		require.NotNil(t, ap.Schema)
		assert.Equal(t, TypeInteger, ap.Schema.Type)
	})
}

func TestSchemaJSONRoundTrip(t *testing.T) {
	original := NewObjectSchema().
		WithTitle("Flight").
		AddProperty("airline", NewStringSchema().WithMinLength(1)).
		AddProperty("price", NewNumberSchema().WithMinimum(0)).
		AddProperty("direct_flight", NewBooleanSchema()).
		AddRequired("airline", "price", "direct_flight")

	data, err := original.ToJSON()
	require.NoError(t, err)

	parsed, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, original.Title, parsed.Title)
	assert.Equal(t, original.Required, parsed.Required)
	assert.Equal(t, TypeString, parsed.GetProperty("airline").Type)
	assert.Equal(t, 1, *parsed.GetProperty("airline").MinLength)
	assert.Equal(t, 0.0, *parsed.GetProperty("price").Minimum)
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestSchemaClone(t *testing.T) {
	original := NewObjectSchema().
		WithTitle("TravelPlan").
		AddProperty("destination", NewStringSchema().WithMinLength(1)).
		AddProperty("duration_days", NewIntegerSchema().WithMinimum(1)).
		AddProperty("activities", NewArraySchema(NewStringSchema()).WithUniqueItems(true)).
		AddRequired("destination", "duration_days")

	clone := original.Clone()
	require.NotNil(t, clone)

	// 深拷贝: 修改克隆不影响原件
	clone.Title = "Changed"
	clone.Required[0] = "changed"
	*clone.GetProperty("duration_days").Minimum = 99
	clone.GetProperty("destination").MinLength = nil

	assert.Equal(t, "TravelPlan", original.Title)
	assert.Equal(t, "destination", original.Required[0])
	assert.Equal(t, 1.0, *original.GetProperty("duration_days").Minimum)
	require.NotNil(t, original.GetProperty("destination").MinLength)
	assert.Equal(t, 1, *original.GetProperty("destination").MinLength)
}

func TestSchemaCloneNil(t *testing.T) {
	var s *JSONSchema
	assert.Nil(t, s.Clone())
}

func TestIsRequired(t *testing.T) {
	schema := NewObjectSchema().
		AddProperty("name", NewStringSchema()).
		AddProperty("notes", NewStringSchema()).
		AddRequired("name")

	assert.True(t, schema.IsRequired("name"))
	assert.False(t, schema.IsRequired("notes"))
	assert.False(t, schema.IsRequired("missing"))
}

func TestHasProperty(t *testing.T) {
	schema := NewObjectSchema().AddProperty("budget", NewNumberSchema())

	assert.True(t, schema.HasProperty("budget"))
	assert.False(t, schema.HasProperty("price"))
	assert.Nil(t, schema.GetProperty("price"))

	empty := &JSONSchema{}
	assert.False(t, empty.HasProperty("anything"))
	assert.Nil(t, empty.GetProperty("anything"))
}

package schema_test

import (
	"testing"

	"github.com/satishbabariya/ormkit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeModifiers(t *testing.T) {
	t.Run("auto increment implies primary key", func(t *testing.T) {
		typ := schema.Integer().AutoIncrement()
		assert.True(t, typ.IsPrimary)
		assert.True(t, typ.IsAutoIncrement)
		assert.True(t, typ.IsNotNull)
	})

	t.Run("modifiers return copies", func(t *testing.T) {
		base := schema.String(0)
		unique := base.Unique().NotNullable()

		assert.False(t, base.IsUnique)
		assert.True(t, unique.IsUnique)
		assert.Equal(t, schema.DefaultStringLength, base.Length)
	})

	t.Run("default value", func(t *testing.T) {
		typ := schema.Boolean().Default(false)
		assert.True(t, typ.HasDefault)
		assert.Equal(t, false, typ.DefaultValue)
	})

	t.Run("decimal and enum", func(t *testing.T) {
		dec := schema.Decimal(10, 2)
		assert.Equal(t, 10, dec.Precision)
		assert.Equal(t, 2, dec.Scale)

		enum := schema.Enum("draft", "published")
		assert.Equal(t, []string{"draft", "published"}, enum.Values)
	})
}

func TestDefine(t *testing.T) {
	t.Run("derives table name", func(t *testing.T) {
		m, err := schema.Define("BlogPost", []schema.Field{
			schema.NewField("id", schema.Integer().AutoIncrement()),
		})
		require.NoError(t, err)
		assert.Equal(t, "blog_post", m.Table)
	})

	t.Run("rejects a second primary key", func(t *testing.T) {
		_, err := schema.Define("Article", []schema.Field{
			schema.NewField("id", schema.Integer().Primary()),
			schema.NewField("slug", schema.String(64).Primary()),
		})
		assert.ErrorIs(t, err, schema.ErrMultiplePrimaryKeys)
	})

	t.Run("rejects duplicate fields", func(t *testing.T) {
		_, err := schema.Define("Article", []schema.Field{
			schema.NewField("title", schema.String(0)),
			schema.NewField("title", schema.Text()),
		})
		assert.ErrorIs(t, err, schema.ErrDuplicateField)
	})

	t.Run("columns and lookups", func(t *testing.T) {
		m := schema.MustDefine("Article", []schema.Field{
			schema.NewField("id", schema.Integer().AutoIncrement()),
			schema.NewField("publishedAt", schema.DateTime()),
			schema.NewField("title", schema.String(0)).As("headline"),
		}, schema.Table("articles"), schema.WithTimestamps())

		pk, ok := m.PrimaryKey()
		require.True(t, ok)
		assert.Equal(t, "id", pk.Name)

		assert.Equal(t, "published_at", m.Column("publishedAt"))
		assert.Equal(t, "headline", m.Column("title"))
		assert.Equal(t, "articles.title", m.Qualified("title"))
		assert.True(t, m.HasField(schema.CreatedAt))
		assert.False(t, m.HasField("missing"))
		assert.Equal(t, map[string]string{"headline": "title"}, m.ClientNames(nil))
		assert.Len(t, m.Fields(), 3)
	})
}

func TestRelationships(t *testing.T) {
	airport := func() *schema.Model {
		return schema.MustDefine("Airport", []schema.Field{
			schema.NewField("id", schema.Integer().AutoIncrement()),
			schema.NewField("name", schema.String(0)),
		}, schema.Table("airports"))
	}
	flight := func() *schema.Model {
		return schema.MustDefine("Flight", []schema.Field{
			schema.NewField("id", schema.Integer().AutoIncrement()),
			schema.NewField("departure", schema.String(0)),
		}, schema.Table("flights"))
	}

	t.Run("belongs to", func(t *testing.T) {
		a, f := airport(), flight()
		require.NoError(t, schema.BelongsTo(f, a))

		field, ok := f.Field("airportId")
		require.True(t, ok)
		require.NotNil(t, field.Ref)
		assert.Equal(t, "airports", field.Ref.Table)
		assert.Equal(t, "id", field.Ref.Field)
	})

	t.Run("one to one", func(t *testing.T) {
		a, f := airport(), flight()
		require.NoError(t, schema.OneToOne(a, f))

		_, ok := a.Field("flightId")
		assert.True(t, ok)
		_, ok = f.Field("airportId")
		assert.True(t, ok)
	})

	t.Run("many to many pivot", func(t *testing.T) {
		a, f := airport(), flight()
		pivot, err := schema.ManyToMany(a, f)
		require.NoError(t, err)

		assert.Equal(t, "airports_flights", pivot.Table)
		names := []string{}
		for _, field := range pivot.Fields() {
			names = append(names, field.Name)
		}
		assert.Equal(t, []string{"id", "airportId", "flightId"}, names)

		p, ok := a.Pivot("Flight")
		require.True(t, ok)
		assert.Same(t, pivot, p)
		p, ok = f.Pivot("Airport")
		require.True(t, ok)
		assert.Same(t, pivot, p)
		assert.Equal(t, []*schema.Model{pivot}, a.Pivots())
	})
}

func TestRegistrySorted(t *testing.T) {
	a := schema.MustDefine("A", []schema.Field{schema.NewField("id", schema.Integer().AutoIncrement())}, schema.Table("a"))
	b := schema.MustDefine("B", []schema.Field{schema.NewField("id", schema.Integer().AutoIncrement())}, schema.Table("b"))
	c := schema.MustDefine("C", []schema.Field{schema.NewField("id", schema.Integer().AutoIncrement())}, schema.Table("c"))
	d := schema.MustDefine("D", []schema.Field{schema.NewField("id", schema.Integer().AutoIncrement())}, schema.Table("d"))

	// b and c reference a, d references c.
	require.NoError(t, schema.BelongsTo(b, a))
	require.NoError(t, schema.BelongsTo(c, a))
	require.NoError(t, schema.BelongsTo(d, c))

	reg := schema.NewRegistry()
	reg.Register(d, c, b, a)

	sorted, err := reg.Sorted()
	require.NoError(t, err)

	tables := []string{}
	for _, m := range sorted {
		tables = append(tables, m.Table)
	}
	assert.Equal(t, []string{"a", "c", "d", "b"}, tables)

	found, ok := reg.LookupTable("c")
	require.True(t, ok)
	assert.Same(t, c, found)
	found, ok = reg.Lookup("D")
	require.True(t, ok)
	assert.Same(t, d, found)
}

func TestRegistryCycle(t *testing.T) {
	a := schema.MustDefine("A", []schema.Field{schema.NewField("id", schema.Integer().AutoIncrement())}, schema.Table("a"))
	b := schema.MustDefine("B", []schema.Field{schema.NewField("id", schema.Integer().AutoIncrement())}, schema.Table("b"))
	require.NoError(t, schema.OneToOne(a, b))

	reg := schema.NewRegistry()
	reg.Register(a, b)

	_, err := reg.Sorted()
	assert.ErrorIs(t, err, schema.ErrDependencyCycle)
}

package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lepinkainen/storefront/internal/jsonapi"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestEnv_Path(t *testing.T) {
	env := NewTestEnv(t)

	path := env.Path("a", "b.txt")
	assert.Equal(t, filepath.Join(env.RootDir(), "a", "b.txt"), path)
	assert.Equal(t, env.RootDir(), env.Path())
}

func TestTestEnv_WriteReadFileString(t *testing.T) {
	env := NewTestEnv(t)

	env.WriteFileString("nested/dir/file.txt", "hello")

	assert.True(t, env.FileExists("nested/dir/file.txt"))
	assert.False(t, env.FileExists("nested/dir/missing.txt"))
	assert.Equal(t, "hello", env.ReadFileString("nested/dir/file.txt"))
}

func TestTestEnv_ListFiles(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteFileString("dir/b.md", "")
	env.WriteFileString("dir/a.md", "")

	assert.Equal(t, []string{"a.md", "b.md"}, env.ListFiles("dir"))
}

func TestTestEnv_Chdir(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteFileString("work/marker", "x")

	env.Chdir("work")

	_, err := os.Stat("marker")
	require.NoError(t, err)
}

func TestSetTestConfig(t *testing.T) {
	env := NewTestEnv(t)
	SetTestConfig(t, env)

	assert.Equal(t, env.Path("cache", "test-cache.db"), viper.GetString("cache.dbfile"))
	assert.Equal(t, env.Path("out"), viper.GetString("output.dir"))
}

func TestSetViperValue(t *testing.T) {
	ResetConfig(t)
	viper.Set("http.retries", 3)

	t.Run("override", func(t *testing.T) {
		SetViperValue(t, "http.retries", 7)
		assert.Equal(t, 7, viper.GetInt("http.retries"))
	})

	assert.Equal(t, 3, viper.GetInt("http.retries"))
}

func TestStoreFixtureResource(t *testing.T) {
	res := StoreFixture{ID: "1", Name: "Corner Books", Rating: 4, CountryID: "9", BookIDs: []string{"b1", "b2"}}.Resource()

	body, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded jsonapi.Resource
	require.NoError(t, json.Unmarshal(body, &decoded))

	country, ok := decoded.Relationship("countries").One()
	require.True(t, ok)
	assert.Equal(t, jsonapi.ID("9"), country.ID)

	books, ok := decoded.Relationship("books").Many()
	require.True(t, ok)
	assert.Len(t, books, 2)

	name, _ := decoded.Attributes.String("name")
	assert.Equal(t, "Corner Books", name)
}

func TestStoreFixtureNoBooks(t *testing.T) {
	res := StoreFixture{ID: "1", NoBooks: true}.Resource()
	assert.NotContains(t, res.Relationships, "books")
	assert.NotContains(t, res.Relationships, "countries")
}

func TestEnvelope(t *testing.T) {
	doc, err := jsonapi.ParseDocument(Envelope(Author("a1", "Tove Jansson")))
	require.NoError(t, err)
	require.Len(t, doc.Data, 1)
	assert.Equal(t, jsonapi.ID("a1"), doc.Data[0].ID)

	assert.JSONEq(t, `{"data":[]}`, string(Envelope()))
}

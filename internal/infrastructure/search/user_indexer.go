package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-ddd-user-registration/internal/domain/entity"
)

const usersMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "long"},
      "name":       {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "email":      {"type": "keyword"},
      "role_id":    {"type": "long"},
      "created_at": {"type": "date"}
    }
  }
}`

// userDocument is what gets indexed. The password hash is never part of it.
type userDocument struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	RoleID    int64     `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UserIndexer mirrors newly created users into an Elasticsearch index.
type UserIndexer struct {
	ES    *elasticsearch.Client
	Index string
}

func NewUserIndexer(es *elasticsearch.Client, index string) *UserIndexer {
	return &UserIndexer{ES: es, Index: index}
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (i *UserIndexer) EnsureIndex(ctx context.Context) error {
	res, err := i.ES.Indices.Exists([]string{i.Index}, i.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es exists %s: %w", i.Index, err)
	}
	drain(res)
	if res.StatusCode == 200 {
		return nil
	}
	if res.StatusCode != 404 {
		return fmt.Errorf("es exists %s: unexpected status %d", i.Index, res.StatusCode)
	}

	res, err = i.ES.Indices.Create(i.Index,
		i.ES.Indices.Create.WithBody(strings.NewReader(usersMapping)),
		i.ES.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es create %s: %w", i.Index, err)
	}
	defer drain(res)
	// a concurrent creator may have won the race
	if res.IsError() && !bytes.Contains(readBody(res), []byte("resource_already_exists_exception")) {
		return fmt.Errorf("es create %s: %s", i.Index, res.Status())
	}
	return nil
}

func (i *UserIndexer) UserCreated(ctx context.Context, u *entity.User) error {
	body, err := json.Marshal(userDocument{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		RoleID:    u.RoleID,
		CreatedAt: u.CreatedAt.UTC(),
	})
	if err != nil {
		return err
	}
	res, err := i.ES.Index(i.Index, bytes.NewReader(body),
		i.ES.Index.WithDocumentID(strconv.FormatInt(u.ID, 10)),
		i.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es index user %d: %w", u.ID, err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("es index user %d: %s", u.ID, res.Status())
	}
	return nil
}

func readBody(res *esapi.Response) []byte {
	if res == nil || res.Body == nil {
		return nil
	}
	b, _ := io.ReadAll(res.Body)
	return b
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}

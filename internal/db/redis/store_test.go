package redis

import (
	"context"
	"strings"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/shopdex/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// --- hash.go tests ---

func TestHSetMulti_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "product:p1"
		})).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisInt64(1))})

	s := NewStoreForTest(c)
	err := s.HSetMulti(context.Background(), []db.HashSetItem{
		{Key: "product:p1", Fields: map[string]string{"name": "Red Sneaker"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDel_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "product:p1")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	if err := s.Del(context.Background(), "product:p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", "product:p1")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	ok, err := s.Exists(context.Background(), "product:p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected key to exist")
	}
}

// --- index.go tests ---

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c)
	def := db.NewIndex("products:idx").Prefix("product:").Text("name").MustBuild()
	if err := s.CreateIndex(context.Background(), def); err != db.ErrIndexExists {
		t.Fatalf("expected ErrIndexExists, got %v", err)
	}
}

// --- search.go tests ---

func searchReply() rueidis.RedisResult {
	return mock.Result(mock.RedisArray(
		mock.RedisInt64(1),
		mock.RedisString("product:p1"),
		mock.RedisArray(
			mock.RedisString("name"),
			mock.RedisString("Red Sneaker"),
			mock.RedisString("price"),
			mock.RedisString("49.99"),
		),
	))
}

func TestSearch_SortedAndPaginated(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var captured []string
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			captured = cmd
			return cmd[0] == "FT.SEARCH" && cmd[1] == "products:idx"
		})).
		Return(searchReply())

	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), &db.SearchQuery{
		Index:    "products:idx",
		Query:    "@category:{shoes}",
		SortBy:   "price",
		SortDesc: true,
		Offset:   10,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 || len(res.Entries) != 1 {
		t.Fatalf("expected 1 hit, got total=%d entries=%d", res.Total, len(res.Entries))
	}
	if res.Entries[0].Fields["name"] != "Red Sneaker" {
		t.Errorf("unexpected fields: %v", res.Entries[0].Fields)
	}

	joined := strings.Join(captured, " ")
	for _, want := range []string{"SORTBY price DESC", "LIMIT 10 10", "DIALECT 2"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected command to contain %q, got %q", want, joined)
		}
	}
}

func TestSearch_EmptyResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), &db.SearchQuery{
		Index: "products:idx",
		Query: "*",
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Entries) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestSearchCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.SEARCH", "products:idx", "@category:{hats}", "LIMIT", "0", "0", "DIALECT", "2",
		)).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(42))))

	s := NewStoreForTest(c)
	n, err := s.SearchCount(context.Background(), "products:idx", "@category:{hats}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Fatalf("expected 42, got %d", n)
	}
}

func TestTagVals(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.TAGVALS", "products:idx", "category")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("shoes"),
			mock.RedisString("hats"),
		)))

	s := NewStoreForTest(c)
	vals, err := s.TagVals(context.Background(), "products:idx", "category")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vals) != 2 || vals[0] != "shoes" || vals[1] != "hats" {
		t.Fatalf("unexpected values: %v", vals)
	}
}

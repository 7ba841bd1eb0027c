package wishlist_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/davemarchant/tienda-go/api"
	"github.com/davemarchant/tienda-go/store"
	"github.com/davemarchant/tienda-go/wishlist"
)

type fakeSession struct {
	authed bool
	userID int64
}

func (f *fakeSession) Authenticated() bool { return f.authed }
func (f *fakeSession) UserID() int64       { return f.userID }

func TestFetchRefreshesMirrorAndPersists(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"data":[{"id":1,"name":"Camiseta","price":19.99},{"id":4,"name":"Gorra","price":14.5}]}`)) //nolint:errcheck
	}))
	defer server.Close()

	st := store.NewMemoryStore()
	svc := wishlist.NewService(api.NewClient(server.URL), &fakeSession{authed: true, userID: 9}, st, zerolog.Nop())

	products, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/users/wishlist/9", gotPath)
	require.Len(t, products, 2)
	require.True(t, svc.Contains(1))
	require.True(t, svc.Contains(4))
	require.False(t, svc.Contains(7))
	require.Equal(t, 2, svc.Len())

	// A new service against the same store restores the mirror offline.
	restored := wishlist.NewService(api.NewClient(server.URL), &fakeSession{authed: true, userID: 9}, st, zerolog.Nop())
	require.True(t, restored.Contains(4))
	require.Equal(t, 2, restored.Len())
}

func TestToggleReturnsServerMessageAndRefetches(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"data":"","message":"Producto agregado a tu lista de deseos"}`)) //nolint:errcheck
			return
		}
		w.Write([]byte(`{"data":[{"id":7,"name":"Bufanda","price":9.99}]}`)) //nolint:errcheck
	}))
	defer server.Close()

	svc := wishlist.NewService(api.NewClient(server.URL), &fakeSession{authed: true, userID: 9},
		store.NewMemoryStore(), zerolog.Nop())

	msg, err := svc.Toggle(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "Producto agregado a tu lista de deseos", msg)
	require.Equal(t, []string{"POST /users/wishlist/9", "GET /users/wishlist/9"}, paths)
	require.True(t, svc.Contains(7))
}

func TestClearDropsMirrorAndPersistence(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(store.KeyWishlist, []byte(`[{"id":1,"name":"Camiseta"}]`)))

	svc := wishlist.NewService(api.NewClient("http://unused"), &fakeSession{}, st, zerolog.Nop())
	require.True(t, svc.Contains(1))

	svc.Clear()

	require.Zero(t, svc.Len())
	_, err := st.Get(store.KeyWishlist)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMalformedPersistedWishlistIsDiscarded(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(store.KeyWishlist, []byte("[broken")))

	svc := wishlist.NewService(api.NewClient("http://unused"), &fakeSession{}, st, zerolog.Nop())

	require.Zero(t, svc.Len())
}

func TestProductsReturnsACopy(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(store.KeyWishlist, []byte(`[{"id":1,"name":"Camiseta"}]`)))

	svc := wishlist.NewService(api.NewClient("http://unused"), &fakeSession{}, st, zerolog.Nop())

	products := svc.Products()
	require.Len(t, products, 1)
	products[0].ID = 99

	require.True(t, svc.Contains(1))
	require.False(t, svc.Contains(99))
}

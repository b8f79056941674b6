package fakehook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/patio/internal/deletion"
	"github.com/five82/patio/internal/diff"
	"github.com/five82/patio/internal/imagecodec"
	"github.com/five82/patio/internal/logging"
	"github.com/five82/patio/internal/mutation"
	"github.com/five82/patio/internal/state"
	"github.com/five82/patio/internal/vehicle"
	"github.com/five82/patio/internal/webhook"
)

const (
	testOrigin = "https://cdn.test"
	photoID    = "be696112-ec99-45e5-b71c-bfba4684f17c"
	photoPath  = "vehicles/ONIX-" + photoID + ".jpeg"
)

type env struct {
	server  *Server
	client  *webhook.Client
	locator imagecodec.Locator
	engine  *diff.Engine
}

func newEnv(t *testing.T, opts Options) env {
	t.Helper()
	srv := New(opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	locator := imagecodec.NewLocator(testOrigin, "")
	client, err := webhook.NewClient(webhook.Options{
		BaseURL: ts.URL,
		Token:   opts.Token,
		Locator: locator,
	})
	require.NoError(t, err)

	return env{
		server:  srv,
		client:  client,
		locator: locator,
		engine:  diff.NewEngine(imagecodec.NewCodec(nil, 0), locator, logging.Discard()),
	}
}

func seeded() []vehicle.Vehicle {
	v := vehicle.Vehicle{
		ID:        "v1",
		ModelName: "CHEVROLET ONIX",
		Plate:     "ABC1D23",
		Km:        42000,
		Price:     45900,
		Type:      "Carro",
		Fuel:      "Flex",
	}
	v.SetPhoto(1, photoPath)
	return []vehicle.Vehicle{v}
}

func writePhoto(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0o644))
	return imagecodec.FileRef(path)
}

func transportStatus(t *testing.T, err error) int {
	t.Helper()
	var te *webhook.TransportError
	require.True(t, errors.As(err, &te), "want *webhook.TransportError, got %v", err)
	return te.Status
}

func TestFetchVehicles_ExpandsPhotoPaths(t *testing.T) {
	e := newEnv(t, Options{Seed: seeded()})

	vehicles, err := e.client.FetchVehicles(context.Background())
	require.NoError(t, err)
	require.Len(t, vehicles, 1)

	v := vehicles[0]
	assert.Equal(t, "v1", v.ID)
	assert.Equal(t, 45900.0, v.Price)
	assert.Equal(t, 42000, v.Km)
	assert.Equal(t, testOrigin+"/"+photoPath, v.Photo(1))
	assert.Empty(t, v.Photo(2))
}

func TestCreateVehicle_UploadsPhotosAndLooksUpPlate(t *testing.T) {
	e := newEnv(t, Options{Plates: map[string]PlateInfo{
		"XYZ9A87": {ModelName: "FIAT ARGO", YearBuilt: 2021, ModelYear: 2022, Color: "Prata"},
	}})

	draft := vehicle.Vehicle{Plate: "XYZ-9A87", Price: 61000, Type: "Carro", Fuel: "Flex"}
	draft.SetPhoto(1, writePhoto(t, "front.jpg"))
	draft.SetPhoto(3, writePhoto(t, "side.png"))

	created, err := e.client.CreateVehicle(context.Background(), e.engine.Creation(context.Background(), draft))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "FIAT ARGO", created.ModelName)
	assert.Equal(t, 2022, created.ModelYear)
	assert.True(t, strings.HasPrefix(created.Photo(1), testOrigin+"/vehicles/FIAT-ARGO-"))
	assert.True(t, strings.HasSuffix(created.Photo(1), ".jpeg"))
	assert.True(t, strings.HasSuffix(created.Photo(3), ".png"))
	assert.Empty(t, created.Photo(2))

	_, ok := imagecodec.ExtractRemoteID(created.Photo(1))
	assert.True(t, ok, "uploaded photo names carry a removable id")

	stored, ok := e.server.Find(created.ID)
	require.True(t, ok)
	assert.Equal(t, "XYZ-9A87", stored.Plate)
}

func TestCreateVehicle_RequiresPlate(t *testing.T) {
	e := newEnv(t, Options{})

	_, err := e.client.CreateVehicle(context.Background(), e.engine.Creation(context.Background(), vehicle.Vehicle{Price: 1}))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, transportStatus(t, err))
	assert.Empty(t, e.server.Vehicles())
}

func TestUpdateVehicle_EchoesOnlyChangedFields(t *testing.T) {
	e := newEnv(t, Options{Seed: seeded()})
	original := seeded()[0]
	original.SetPhoto(1, e.locator.URLFor(photoPath))

	updated := original
	updated.Price = 47500

	partial, err := e.client.UpdateVehicle(context.Background(), e.engine.Build(context.Background(), original, updated))
	require.NoError(t, err)

	assert.Equal(t, []vehicle.Field{vehicle.FieldPrice}, partial.Fields())
	assert.Equal(t, 47500.0, partial[vehicle.FieldPrice])

	stored, _ := e.server.Find("v1")
	assert.Equal(t, 47500.0, stored.Price)
	assert.Equal(t, 42000, stored.Km)
}

func TestUpdateVehicle_PlateChangeRefillsDerivedFields(t *testing.T) {
	e := newEnv(t, Options{
		Seed: seeded(),
		Plates: map[string]PlateInfo{
			"QWE4R56": {ModelName: "VW POLO", YearBuilt: 2019, ModelYear: 2020, Color: "Branco"},
		},
	})
	original := seeded()[0]
	updated := original
	updated.Plate = "QWE4R56"

	partial, err := e.client.UpdateVehicle(context.Background(), e.engine.Build(context.Background(), original, updated))
	require.NoError(t, err)

	assert.Equal(t, "QWE4R56", partial[vehicle.FieldPlate])
	assert.Equal(t, "VW POLO", partial[vehicle.FieldModelName])
	assert.Equal(t, 2019, partial[vehicle.FieldYearBuilt])
	assert.Equal(t, 2020, partial[vehicle.FieldModelYear])
	assert.Equal(t, "Branco", partial[vehicle.FieldColor])
}

func TestUpdateVehicle_ReplacesPhoto(t *testing.T) {
	e := newEnv(t, Options{Seed: seeded()})
	original := seeded()[0]
	original.SetPhoto(1, e.locator.URLFor(photoPath))

	updated := original
	updated.SetPhoto(1, writePhoto(t, "new.jpg"))

	payload := e.engine.Build(context.Background(), original, updated)
	require.Len(t, payload.Removals(), 1)

	partial, err := e.client.UpdateVehicle(context.Background(), payload)
	require.NoError(t, err)

	ref, ok := partial[vehicle.PhotoField(1)].(string)
	require.True(t, ok, "replaced slot is echoed")
	assert.NotEqual(t, e.locator.URLFor(photoPath), ref)
	assert.True(t, strings.HasPrefix(ref, testOrigin+"/vehicles/CHEVROLET-ONIX-"))

	stored, _ := e.server.Find("v1")
	assert.NotEqual(t, photoPath, stored.Photo(1))
	assert.NotEmpty(t, stored.Photo(1))
}

func TestUpdateVehicle_RemovesPhoto(t *testing.T) {
	e := newEnv(t, Options{Seed: seeded()})
	original := seeded()[0]
	original.SetPhoto(1, e.locator.URLFor(photoPath))

	updated := original
	updated.SetPhoto(1, "")

	partial, err := e.client.UpdateVehicle(context.Background(), e.engine.Build(context.Background(), original, updated))
	require.NoError(t, err)
	assert.Empty(t, partial, "a cleared slot is echoed as null and carries no value")

	stored, _ := e.server.Find("v1")
	assert.Empty(t, stored.Photo(1))
}

func TestUpdateVehicle_UnknownVehicle(t *testing.T) {
	e := newEnv(t, Options{})

	_, err := e.client.UpdateVehicle(context.Background(), diff.Payload{
		ID:     "missing",
		Fields: []diff.FieldChange{{Field: vehicle.FieldKm, Value: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, transportStatus(t, err))
}

func TestBulkDelete_IsAllOrNothing(t *testing.T) {
	seed := append(seeded(), vehicle.Vehicle{ID: "v2", Plate: "DEF4G56"})
	e := newEnv(t, Options{Seed: seed})

	err := e.client.BulkDeleteVehicles(context.Background(), []webhook.DeleteRequest{{ID: "v1"}, {ID: "nope"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, transportStatus(t, err))
	assert.Len(t, e.server.Vehicles(), 2)

	err = e.client.BulkDeleteVehicles(context.Background(), []webhook.DeleteRequest{{ID: "v1"}, {ID: "v2"}})
	require.NoError(t, err)
	assert.Empty(t, e.server.Vehicles())
}

func TestDeleteVehicle(t *testing.T) {
	e := newEnv(t, Options{Seed: seeded()})

	require.NoError(t, e.client.DeleteVehicle(context.Background(), webhook.DeleteRequest{ID: "v1", Images: []string{photoPath}}))
	assert.Empty(t, e.server.Vehicles())

	err := e.client.DeleteVehicle(context.Background(), webhook.DeleteRequest{ID: "v1"})
	assert.Equal(t, http.StatusNotFound, transportStatus(t, err))
}

func TestRequireToken(t *testing.T) {
	srv := New(Options{Token: "secret", Seed: seeded()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := webhook.NewClient(webhook.Options{BaseURL: ts.URL, Token: "wrong"})
	require.NoError(t, err)

	_, err = client.FetchVehicles(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, transportStatus(t, err))

	client, err = webhook.NewClient(webhook.Options{BaseURL: ts.URL, Token: "secret"})
	require.NoError(t, err)
	vehicles, err := client.FetchVehicles(context.Background())
	require.NoError(t, err)
	assert.Len(t, vehicles, 1)
}

func TestFailNext(t *testing.T) {
	e := newEnv(t, Options{Seed: seeded()})
	e.server.FailNext(webhook.EndpointVehicles, http.StatusBadGateway)

	_, err := e.client.FetchVehicles(context.Background())
	assert.Equal(t, http.StatusBadGateway, transportStatus(t, err))

	vehicles, err := e.client.FetchVehicles(context.Background())
	require.NoError(t, err)
	assert.Len(t, vehicles, 1)
}

func TestCORSPreflight(t *testing.T) {
	srv := New(Options{})
	req := httptest.NewRequest(http.MethodOptions, "/"+webhook.EndpointUpdate, nil)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCoordinators_EndToEnd(t *testing.T) {
	e := newEnv(t, Options{
		Seed: seeded(),
		Plates: map[string]PlateInfo{
			"QWE4R56": {ModelName: "VW POLO", YearBuilt: 2019, ModelYear: 2020, Color: "Branco"},
		},
	})
	ctx := context.Background()

	store := &state.Store{}
	vehicles, err := e.client.FetchVehicles(ctx)
	require.NoError(t, err)
	store.ReplaceAll(vehicles)

	editor := mutation.NewCoordinator(store, e.client, e.engine, logging.Discard())
	deleter := deletion.NewCoordinator(store, e.client, e.locator, logging.Discard())

	confirmed, err := editor.BeginFieldEdit(ctx, "v1", vehicle.FieldPlate, "QWE4R56")
	require.NoError(t, err)
	assert.Equal(t, "VW POLO", confirmed.ModelName)

	snap := store.Snapshot()
	v1, ok := snap.Find("v1")
	require.True(t, ok)
	assert.Equal(t, "QWE4R56", v1.Plate)
	assert.Equal(t, "Branco", v1.Color)
	assert.False(t, snap.Updating("v1"))

	e.server.FailNext(webhook.EndpointUpdate, http.StatusInternalServerError)
	_, err = editor.BeginFieldEdit(ctx, "v1", vehicle.FieldKm, 50000)
	require.Error(t, err)
	v1, _ = store.Snapshot().Find("v1")
	assert.Equal(t, 42000, v1.Km, "failed edit restores the record")

	draft := vehicle.Vehicle{Plate: "JKL7M89", Price: 30000, Type: "Moto", Fuel: "Gasolina"}
	for slot := 1; slot <= vehicle.MandatorySlots; slot++ {
		draft.SetPhoto(slot, writePhoto(t, "p.jpg"))
	}
	created, err := editor.Create(ctx, draft)
	require.NoError(t, err)
	assert.False(t, created.IsTemporary())
	assert.Len(t, store.Snapshot().Vehicles, 2)

	n, err := deleter.BulkDelete(ctx, []string{"v1", created.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, store.Snapshot().Vehicles)
	assert.Empty(t, e.server.Vehicles())
}

func TestSlotFromName(t *testing.T) {
	assert.Equal(t, 3, slotFromName("foto3.jpg"))
	assert.Equal(t, 12, slotFromName("foto12_old.jpg"))
	assert.Equal(t, 0, slotFromName("foto13.jpg"))
	assert.Equal(t, 0, slotFromName("photo1.jpg"))
	assert.Equal(t, 0, slotFromName("foto.jpg"))
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "JEEP-COMPASS-123-"+photoID+".jpeg", objectName("Jeep Compass 123", "image/jpeg", photoID))
	assert.Equal(t, "VEHICLE-"+photoID+".png", objectName("  ", "image/png", photoID))
}

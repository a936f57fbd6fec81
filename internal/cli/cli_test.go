package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/gashu"
	"github.com/aretw0/gashu/internal/config"
	"github.com/aretw0/gashu/internal/logging"
	"github.com/aretw0/gashu/internal/testutils"
	"github.com/aretw0/gashu/pkg/adapters/memory"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/itinerary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Stations.SQLite = filepath.Join(t.TempDir(), "stations.db")
	return cfg
}

func TestCreateApp_EncryptedFileStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = config.DriverFile
	cfg.Store.Dir = t.TempDir()
	cfg.Store.EncryptionKey = "0123456789abcdef0123456789abcdef"

	stub := testutils.NewStub().Collaborators()
	app, err := createApp(context.Background(), cfg, logging.NewNop(), BuildOptions{Collaborators: &stub})
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	_, err = app.Engine.HandleTurn(ctx, gashu.TurnRequest{UserID: "u1", Message: "청주역" + testutils.DestSuffix})
	require.NoError(t, err)

	files, err := os.ReadDir(cfg.Store.Dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	raw, err := os.ReadFile(filepath.Join(cfg.Store.Dir, files[0].Name()))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "청주역", "session must be encrypted at rest")

	s, err := app.Engine.Session(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "청주역", s.RequestedDest)

	families, err := app.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "gashu_turns_total")
}

func TestCreateApp_RedactsPhoneNumbers(t *testing.T) {
	cfg := testConfig(t)
	stub := testutils.NewStub().Collaborators()
	app, err := createApp(context.Background(), cfg, logging.NewNop(), BuildOptions{Collaborators: &stub})
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	_, err = app.Engine.HandleTurn(ctx, gashu.TurnRequest{UserID: "u1", Message: "제 번호는 010-1234-5678"})
	require.NoError(t, err)

	s, err := app.Store.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, s.MessageHistory)
	assert.Equal(t, "제 번호는 ***", s.MessageHistory[0].Content)
}

func TestCreateApp_ProviderWiring(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.ClassifierModel = "anthropic/claude-haiku-4"

	app, err := createApp(context.Background(), cfg, logging.NewNop(), BuildOptions{Debug: true})
	require.NoError(t, err)
	require.NotNil(t, app.Engine)
	assert.NoError(t, app.Close())
}

func TestSessionCommands(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	var out bytes.Buffer

	require.NoError(t, listSessions(ctx, store, &out))
	assert.Contains(t, out.String(), "No sessions found.")

	s := domain.NewSession()
	s.RequestedDest = "청주역"
	require.NoError(t, store.Save(ctx, "b-user", s))
	require.NoError(t, store.Save(ctx, "a-user", domain.NewSession()))

	out.Reset()
	require.NoError(t, listSessions(ctx, store, &out))
	assert.Equal(t, "a-user\nb-user\n", out.String())

	out.Reset()
	require.NoError(t, inspectSession(ctx, store, "b-user", &out))
	var got domain.Session
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "청주역", got.RequestedDest)

	assert.Error(t, inspectSession(ctx, store, "missing", &out))

	out.Reset()
	require.NoError(t, removeSession(ctx, store, "b-user", &out))
	assert.Contains(t, out.String(), "b-user")
	_, err := store.Load(ctx, "b-user")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRunChat_Headless(t *testing.T) {
	eng, err := gashu.New(testutils.NewStub().Collaborators())
	require.NoError(t, err)

	var out bytes.Buffer
	err = runChat(context.Background(), eng, ChatOptions{
		UserID:   "cli-test",
		Headless: true,
		Input:    strings.NewReader("안녕\n"),
		Output:   &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요! 어디로 가고 싶으신가요?\n"+testutils.AskDest+"\n", out.String())
}

type fixedResolver struct{}

func (fixedResolver) NearestStation(context.Context, float64, float64) (string, error) {
	return "CJB283000123", nil
}

func TestNormalize_Fixture(t *testing.T) {
	raw, err := os.ReadFile("../../pkg/itinerary/testdata/directions.json")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, normalize(context.Background(), itinerary.New(fixedResolver{}), raw, &out))

	var its []domain.Itinerary
	require.NoError(t, json.Unmarshal(out.Bytes(), &its))
	require.Len(t, its, 2)
	assert.Equal(t, "CJB283000123", its[0].BusRoutes[0].StartNodeID)
}

func TestParseStations(t *testing.T) {
	list, err := parseStations(strings.NewReader("nodeid,nodenm,gpslati,gpslong\nCJB1,충북대학교,36.628,127.456\nCJB2, 청주역 ,36.634,127.471\n"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "CJB1", list[0].NodeID)
	assert.Equal(t, 127.456, list[0].Lon)

	_, err = parseStations(strings.NewReader("nodeid,name\nCJB1,x\n"))
	assert.Error(t, err)

	_, err = parseStations(strings.NewReader("nodeid,nodenm,gpslati,gpslong\nCJB1,x,north,127\n"))
	assert.Error(t, err)
}

func TestCreateLogger(t *testing.T) {
	_, err := createLogger(config.LogConfig{Level: "loud"}, false)
	assert.Error(t, err)

	logger, err := createLogger(config.LogConfig{Level: "warn", Format: "json"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

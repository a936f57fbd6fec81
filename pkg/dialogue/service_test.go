package dialogue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/gashu/pkg/dialogue"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/llm"
	"github.com/aretw0/gashu/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.Classifier    = (*dialogue.Service)(nil)
	_ ports.DestDialogue  = (*dialogue.Service)(nil)
	_ ports.DepDialogue   = (*dialogue.Service)(nil)
	_ ports.RouteDialogue = (*dialogue.Service)(nil)
)

func TestClassify(t *testing.T) {
	mock := llm.NewMockClient(llm.MockResponse{Content: `{"state":"SET_DEST","dest":"서울역","dep":"null","requires_dest_coord":false,"error":false}`})
	svc := dialogue.New(mock, "gpt-3.5-turbo", dialogue.WithClassifierModel("gpt-4o"))

	history := []domain.Message{{Role: domain.RoleAssistant, Content: "어디로 가세요?"}}
	p, err := svc.Classify(context.Background(), history, "나 서울역 가고 싶어")
	require.NoError(t, err)
	require.True(t, p.OK)
	assert.Equal(t, domain.StateSetDest, p.Value.State)
	assert.Equal(t, "서울역", p.Value.Dest)
	assert.Empty(t, p.Value.Dep)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "gpt-4o", calls[0].Model)
	require.Len(t, calls[0].Messages, 2)
	assert.Equal(t, history[0], calls[0].Messages[0])
	assert.Contains(t, calls[0].Messages[1].Content, "나 서울역 가고 싶어")
	require.NotNil(t, calls[0].Temperature)
	assert.Zero(t, *calls[0].Temperature)
}

func TestClassify_UnknownStateIsError(t *testing.T) {
	svc := dialogue.New(llm.NewMockClient(llm.MockResponse{Content: `{"state":"weather"}`}), "m")
	p, err := svc.Classify(context.Background(), nil, "날씨 어때?")
	require.NoError(t, err)
	assert.Equal(t, domain.StateError, p.Value.State)
}

func TestClassify_EmptyStateIsKept(t *testing.T) {
	svc := dialogue.New(llm.NewMockClient(llm.MockResponse{Content: `{"dest":"청주역"}`}), "m")
	p, err := svc.Classify(context.Background(), nil, "청주역")
	require.NoError(t, err)
	assert.Empty(t, p.Value.State)
}

func TestDialogue_ParseFailureIsNotAnError(t *testing.T) {
	svc := dialogue.New(llm.NewMockClient(llm.MockResponse{Content: "음... 잘 모르겠어요"}), "m")
	p, err := svc.DestTurn(context.Background(), nil, nil, "네")
	require.NoError(t, err)
	assert.False(t, p.OK)
	assert.Equal(t, "음... 잘 모르겠어요", p.Raw)
}

func TestDialogue_TransportError(t *testing.T) {
	boom := errors.New("connection reset")
	svc := dialogue.New(llm.NewMockClient(llm.MockResponse{Error: boom}), "m")
	_, err := svc.DepTurn(context.Background(), nil, nil, "여기서 출발")
	assert.ErrorIs(t, err, boom)
}

func TestDestTurn_EmbedsCandidates(t *testing.T) {
	mock := llm.NewMockClient(llm.MockResponse{Content: `{"message":"서울역으로 할게요","dest":"서울역","dest_address":"서울 용산구 한강대로 405"}`})
	svc := dialogue.New(mock, "m")

	cands := []domain.Candidate{{Name: "서울역", Address: "서울 용산구 한강대로 405"}}
	p, err := svc.DestTurn(context.Background(), nil, cands, "네")
	require.NoError(t, err)
	assert.Equal(t, "서울 용산구 한강대로 405", p.Value.DestAddress)
	assert.Contains(t, mock.Calls()[0].Messages[0].Content, `"address":"서울 용산구 한강대로 405"`)
}

func TestRouteTurn_Selection(t *testing.T) {
	mock := llm.NewMockClient(llm.MockResponse{Content: `{"message":null,"routeno":"502","nodeid":"CJB283000123"}`})
	svc := dialogue.New(mock, "m")

	p, err := svc.RouteTurn(context.Background(), nil, []domain.Itinerary{{TotalTime: 30}}, "502번 언제 와?")
	require.NoError(t, err)
	require.True(t, p.OK)
	assert.True(t, p.Value.Selection())
	assert.Empty(t, p.Value.Message)
}

package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/shortlist-watcher/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRuntime struct {
	body    []byte
	err     error
	request map[string]interface{}
	modelID string
}

func (f *fakeRuntime) InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.modelID = *in.ModelId
	_ = json.Unmarshal(in.Body, &f.request)
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func newExtractor(rt *fakeRuntime, model string) *EventExtractor {
	logger := zap.NewNop()
	return NewEventExtractor(rt, model, 300, 0, 0.9, 4096, time.UTC, logger, utils.NewTextProcessor(logger))
}

func TestExtractEvent_Claude(t *testing.T) {
	rt := &fakeRuntime{body: []byte(`{"completion":" {\"start\":\"2025-03-12T10:30:00Z\",\"location\":\"Online\",\"link\":\"\"}"}`)}
	ex := newExtractor(rt, "anthropic.claude-v2")

	d, err := ex.ExtractEvent(context.Background(), "Interview tomorrow")
	require.NoError(t, err)
	require.NotNil(t, d.Start)
	assert.Equal(t, time.Date(2025, 3, 12, 10, 30, 0, 0, time.UTC), d.Start.UTC())
	assert.Equal(t, "Online", d.Location)
	assert.Equal(t, "anthropic.claude-v2", rt.modelID)
	assert.Contains(t, rt.request["prompt"], "Interview tomorrow")
	assert.Contains(t, rt.request, "max_tokens_to_sample")
}

func TestExtractEvent_Titan(t *testing.T) {
	rt := &fakeRuntime{body: []byte(`{"results":[{"outputText":"{\"start\":\"\",\"location\":\"SJT\",\"link\":\"\"}"}]}`)}
	ex := newExtractor(rt, "amazon.titan-text-express-v1")

	d, err := ex.ExtractEvent(context.Background(), "Venue SJT")
	require.NoError(t, err)
	assert.Nil(t, d.Start)
	assert.Equal(t, "SJT", d.Location)
	assert.Contains(t, rt.request, "textGenerationConfig")
}

func TestExtractEvent_Errors(t *testing.T) {
	ex := newExtractor(&fakeRuntime{err: errors.New("throttled")}, "meta.llama3")
	_, err := ex.ExtractEvent(context.Background(), "x")
	assert.ErrorContains(t, err, "throttled")

	ex = newExtractor(&fakeRuntime{body: []byte(`{"results":[]}`)}, "amazon.titan-text-lite-v1")
	_, err = ex.ExtractEvent(context.Background(), "x")
	assert.Error(t, err)
}

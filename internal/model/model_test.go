package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInferenceResponse_Inconclusive(t *testing.T) {
	var resp InferenceResponse
	require.NoError(t, json.Unmarshal([]byte(`{"message":"not a fruit"}`), &resp))
	require.True(t, resp.Inconclusive())

	resp = InferenceResponse{}
	require.NoError(t, json.Unmarshal([]byte(`{"message":"ok","ripeness":"ripe","confidence":0.4}`), &resp))
	require.False(t, resp.Inconclusive())
	require.InDelta(t, 0.4, *resp.Confidence, 1e-9)
}

func TestInferenceResponse_Probabilities(t *testing.T) {
	var resp InferenceResponse
	raw := `{"fruit_type":"apple","ripeness":"unripe","confidence":0.7,"ripeness_probabilities":{"unripe":0.6,"ripe":0.3}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.Equal(t, "apple", resp.FruitType)
	require.InDelta(t, 0.6, resp.RipenessProbabilities["unripe"], 1e-9)
}

func TestCalibratedResult_InconclusiveJSON(t *testing.T) {
	msg := "not a fruit"
	res := CalibratedResult{Message: &msg}
	require.True(t, res.Inconclusive())
	out, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{"message":"not a fruit"}`, string(out))

	empty := ""
	out, err = json.Marshal(CalibratedResult{Message: &empty})
	require.NoError(t, err)
	require.JSONEq(t, `{"message":""}`, string(out))

	conf := 0.8
	require.False(t, CalibratedResult{Confidence: &conf}.Inconclusive())
}

func TestKindOf(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("detect: %w", &Error{Kind: KindInferenceFailure, Message: "service unavailable", Err: cause})

	require.Equal(t, KindInferenceFailure, KindOf(err))
	require.ErrorIs(t, err, cause)
	require.Equal(t, ErrorKind(""), KindOf(cause))
	require.Equal(t, "service unavailable: dial tcp: refused", (&Error{Message: "service unavailable", Err: cause}).Error())
}

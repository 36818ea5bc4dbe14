// Package remote talks to the out-of-process pattern classification
// service over HTTP/JSON. Every failure path degrades: the caller gets a
// miss and falls back to the local rule cascade, never an error.
package remote

// #region imports
import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/danielpatrickdp/collab-sentinel/internal/pattern"
	"github.com/danielpatrickdp/collab-sentinel/internal/signals"
)

// #endregion

// #region wire-types

// ClassifyRequest is the JSON request body for /predict.
type ClassifyRequest struct {
	SessionID        string         `json:"session_id"`
	Turns            []signals.Turn `json:"turns"`
	CurrentTurnIndex int            `json:"current_turn_index"`
}

// wireSignals mirrors signals.BehavioralSignals with JSON tags.
type wireSignals struct {
	TurnCount             int      `json:"turn_count"`
	DecompositionEvidence int      `json:"decomposition_evidence"`
	GoalClarity           float64  `json:"goal_clarity"`
	StrategyMentioned     bool     `json:"strategy_mentioned"`
	PreparationActions    []string `json:"preparation_actions"`
	VerificationAttempted bool     `json:"verification_attempted"`
	QualityCheckMentioned bool     `json:"quality_check_mentioned"`
	ContextAwareness      float64  `json:"context_awareness"`
	OutputEvaluation      bool     `json:"output_evaluation"`
	ReflectionDepth       int      `json:"reflection_depth"`
	CapabilityJudgment    bool     `json:"capability_judgment"`
	IterationCount        int      `json:"iteration_count"`
	TrustCalibration      []string `json:"trust_calibration"`
	TaskComplexity        float64  `json:"task_complexity"`
	AIRelianceDegree      float64  `json:"ai_reliance_degree"`
	LearningOrientation   float64  `json:"learning_orientation"`
	AIQueryRatio          float64  `json:"ai_query_ratio"`
	VerificationRatio     float64  `json:"verification_ratio"`
}

type wirePattern struct {
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities"`
	Confidence    float64            `json:"confidence"`
	Evidence      []string           `json:"evidence"`
	NeedMoreData  bool               `json:"need_more_data"`
}

type classifyResponse struct {
	Signals             wireSignals `json:"signals"`
	Pattern             wirePattern `json:"pattern"`
	ActiveInterventions []string    `json:"active_interventions"`
	TurnCount           int         `json:"turn_count"`
	IsHighRisk          bool        `json:"is_high_risk"`
}

// Result is the decoded classification outcome.
type Result struct {
	Signals             signals.BehavioralSignals
	Estimate            pattern.Estimate
	ActiveInterventions []string
	TurnCount           int
	HighRisk            bool
}

// #endregion wire-types

// #region client

// Client calls the classifier service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL, e.g.
// "http://localhost:5002".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTPClient injects the HTTP client. Used for testing.
func NewClientWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

// #endregion client

// #region classify

// Classify posts the conversation to /predict. ok is false on timeout,
// transport error, non-2xx status, or a malformed body; the caller then
// retains its last-known pattern and emits no interventions from this path.
func (c *Client) Classify(ctx context.Context, req ClassifyRequest) (Result, bool) {
	body, err := json.Marshal(req)
	if err != nil {
		log.Printf("[REMOTE] encode request: %v", err)
		return Result{}, false
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		log.Printf("[REMOTE] build request: %v", err)
		return Result{}, false
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.Printf("[REMOTE] classify: %v", err)
		return Result{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		log.Printf("[REMOTE] classify: status %d", resp.StatusCode)
		return Result{}, false
	}

	var wire classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		log.Printf("[REMOTE] decode response: %v", err)
		return Result{}, false
	}

	label := pattern.Pattern(wire.Pattern.Label)
	if !label.Valid() {
		log.Printf("[REMOTE] unknown label %q", wire.Pattern.Label)
		return Result{}, false
	}

	return Result{
		Signals:             fromWireSignals(wire.Signals),
		Estimate:            fromWirePattern(wire.Pattern, label),
		ActiveInterventions: wire.ActiveInterventions,
		TurnCount:           wire.TurnCount,
		HighRisk:            wire.IsHighRisk,
	}, true
}

// BatchClassify posts several conversations to /batch_predict in one
// round trip. ok is false under the same conditions as Classify, and
// when the service returns a result count that does not match the
// request count.
func (c *Client) BatchClassify(ctx context.Context, reqs []ClassifyRequest) ([]Result, bool) {
	body, err := json.Marshal(struct {
		Sessions []ClassifyRequest `json:"sessions"`
	}{reqs})
	if err != nil {
		log.Printf("[REMOTE] encode batch request: %v", err)
		return nil, false
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/batch_predict", bytes.NewReader(body))
	if err != nil {
		log.Printf("[REMOTE] build batch request: %v", err)
		return nil, false
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		log.Printf("[REMOTE] batch classify: %v", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		log.Printf("[REMOTE] batch classify: status %d", resp.StatusCode)
		return nil, false
	}

	var wire struct {
		Results []classifyResponse `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		log.Printf("[REMOTE] decode batch response: %v", err)
		return nil, false
	}
	if len(wire.Results) != len(reqs) {
		log.Printf("[REMOTE] batch classify: %d results for %d sessions", len(wire.Results), len(reqs))
		return nil, false
	}

	out := make([]Result, 0, len(wire.Results))
	for _, w := range wire.Results {
		label := pattern.Pattern(w.Pattern.Label)
		if !label.Valid() {
			log.Printf("[REMOTE] unknown label %q in batch", w.Pattern.Label)
			return nil, false
		}
		out = append(out, Result{
			Signals:             fromWireSignals(w.Signals),
			Estimate:            fromWirePattern(w.Pattern, label),
			ActiveInterventions: w.ActiveInterventions,
			TurnCount:           w.TurnCount,
			HighRisk:            w.IsHighRisk,
		})
	}
	return out, true
}

// #endregion classify

// #region health

// Health probes /health.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health: status %d", resp.StatusCode)
	}
	return nil
}

// #endregion health

// #region conversion

func fromWireSignals(w wireSignals) signals.BehavioralSignals {
	return signals.BehavioralSignals{
		TurnCount:             w.TurnCount,
		DecompositionEvidence: w.DecompositionEvidence,
		GoalClarity:           w.GoalClarity,
		StrategyMentioned:     w.StrategyMentioned,
		PreparationActions:    w.PreparationActions,
		VerificationAttempted: w.VerificationAttempted,
		QualityCheckMentioned: w.QualityCheckMentioned,
		ContextAwareness:      w.ContextAwareness,
		OutputEvaluation:      w.OutputEvaluation,
		ReflectionDepth:       w.ReflectionDepth,
		CapabilityJudgment:    w.CapabilityJudgment,
		IterationCount:        w.IterationCount,
		TrustCalibration:      w.TrustCalibration,
		TaskComplexity:        w.TaskComplexity,
		AIRelianceDegree:      w.AIRelianceDegree,
		LearningOrientation:   w.LearningOrientation,
		AIQueryRatio:          w.AIQueryRatio,
		VerificationRatio:     w.VerificationRatio,
	}
}

func fromWirePattern(w wirePattern, label pattern.Pattern) pattern.Estimate {
	probs := make(map[pattern.Pattern]float64, len(w.Probabilities))
	for k, v := range w.Probabilities {
		probs[pattern.Pattern(k)] = v
	}
	return pattern.Estimate{
		Label:         label,
		Probabilities: probs,
		Confidence:    w.Confidence,
		Evidence:      w.Evidence,
		NeedMoreData:  w.NeedMoreData,
	}
}

// #endregion conversion

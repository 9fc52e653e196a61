// Package a2a serves the wizard as an A2A agent: a JSON-RPC endpoint that
// runs every stage on autopilot and reports the finished plan.
package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/agent"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/locale"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/wizard"
)

// PromoWindow is the length of the promotion period chosen on autopilot.
const PromoWindow = 30 * 24 * time.Hour

type A2AHandler struct {
	wizard *wizard.Wizard
	money  *locale.Formatter
	logger *logrus.Entry
	now    func() time.Time
}

func NewA2AHandler(w *wizard.Wizard, money *locale.Formatter, logger *logrus.Logger) *A2AHandler {
	return &A2AHandler{
		wizard: w,
		money:  money,
		logger: logger.WithField("system", "a2a"),
		now:    time.Now,
	}
}

// Register mounts the agent card and the ideation endpoint.
func (h *A2AHandler) Register(r gin.IRoutes) {
	r.GET("/.well-known/agent.json", h.ServeAgentCard)
	r.POST("/a2a/ideation", RequestBodyLogger(h.logger), h.HandleIdeation)
}

// RequestBodyLogger logs raw request bodies at debug level.
func RequestBodyLogger(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
			c.Next()
			return
		}

		bodyBytes, _ := io.ReadAll(c.Request.Body)
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"body":   string(bodyBytes),
		}).Debug("incoming request")

		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		c.Next()
	}
}

// HandleIdeation processes A2A messages
func (h *A2AHandler) HandleIdeation(c *gin.Context) {
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.WithError(err).Error("failed to read request body")
		h.sendErrorResponse(c, nil, "Failed to read request body", CodeParseError)
		return
	}

	var rpcReq JSONRPCRequest
	if err := json.Unmarshal(bodyBytes, &rpcReq); err != nil || rpcReq.Method == "" {
		// Some clients post the message params without the JSON-RPC envelope.
		h.handleDirectMessage(c, bodyBytes)
		return
	}

	if rpcReq.JSONRPC != "2.0" {
		h.logger.WithField("jsonrpc", rpcReq.JSONRPC).Warn("invalid JSON-RPC version")
		h.sendErrorResponse(c, rpcReq.ID, "Invalid JSON-RPC version", CodeInvalidRequest)
		return
	}

	switch rpcReq.Method {
	case "agent/task", "message/send":
		h.handleTask(c, rpcReq)
	default:
		h.logger.WithField("method", rpcReq.Method).Warn("unknown method")
		h.sendErrorResponse(c, rpcReq.ID, fmt.Sprintf("Method not found: %s", rpcReq.Method), CodeMethodNotFound)
	}
}

func (h *A2AHandler) handleDirectMessage(c *gin.Context, bodyBytes []byte) {
	var msgParams MessageParams
	if err := json.Unmarshal(bodyBytes, &msgParams); err != nil {
		h.logger.WithError(err).Warn("failed to parse direct message")
		h.sendErrorResponse(c, nil, "Invalid request format", CodeParseError)
		return
	}

	taskID := "direct-message"
	h.sendSuccessResponse(c, taskID, h.ideate(c.Request.Context(), taskID, msgParams.Message))
}

func (h *A2AHandler) handleTask(c *gin.Context, rpcReq JSONRPCRequest) {
	paramsJSON, err := json.Marshal(rpcReq.Params)
	if err != nil {
		h.sendErrorResponse(c, rpcReq.ID, "Failed to parse parameters", CodeInvalidParams)
		return
	}

	var msgParams MessageParams
	if err := json.Unmarshal(paramsJSON, &msgParams); err != nil {
		h.logger.WithError(err).Warn("invalid message params")
		h.sendErrorResponse(c, rpcReq.ID, "Invalid parameters", CodeInvalidParams)
		return
	}

	taskID := uuid.New().String()
	if msgParams.Message.TaskID != nil && *msgParams.Message.TaskID != "" {
		taskID = *msgParams.Message.TaskID
	}

	h.sendSuccessResponse(c, rpcReq.ID, h.ideate(c.Request.Context(), taskID, msgParams.Message))
}

// ideate runs the whole wizard for the request in msg and returns the task
// describing the outcome.
func (h *A2AHandler) ideate(ctx context.Context, taskID string, msg A2AMessage) TaskResult {
	request := h.extractRequest(msg)
	if request == "" {
		return h.createErrorTaskResult(taskID,
			"Please describe your business idea, e.g. \"location: Jakarta, industry: coffee, audience: students, scale: small, capital: 10000000\".")
	}

	in := parseMarketInputs(request)
	log := h.logger.WithFields(logrus.Fields{"task": taskID, "industry": in.Industry(), "location": in.Location})
	log.Info("ideation started")

	st, err := h.runWizard(ctx, in)
	if err != nil {
		log.WithError(err).Warn("ideation failed")
		return h.createErrorTaskResult(taskID, failureText(st, err))
	}

	log.WithField("session", st.ID).Info("ideation completed")
	return h.createSuccessTaskResult(taskID, st)
}

// runWizard drives a fresh session through every stage, always taking the
// highest scored need and product.
func (h *A2AHandler) runWizard(ctx context.Context, in models.MarketInputs) (wizard.State, error) {
	st, err := h.wizard.Create()
	if err != nil {
		return st, err
	}
	id := st.ID

	if st, err = h.wizard.SubmitMarket(ctx, id, in); err != nil {
		return st, err
	}
	if st, err = h.wizard.SelectNeed(ctx, id, 0); err != nil {
		return st, err
	}
	if st, err = h.wizard.SelectProduct(ctx, id, 0); err != nil {
		return st, err
	}

	start := h.now()
	promo := models.PromoInputs{
		StartDate: start.Format(time.DateOnly),
		EndDate:   start.Add(PromoWindow).Format(time.DateOnly),
	}
	return h.wizard.SubmitPromo(ctx, id, promo)
}

// ServeAgentCard serves the agent card using Gin
func (h *A2AHandler) ServeAgentCard(c *gin.Context) {
	if err := agent.LoadAgentCard(); err != nil {
		h.logger.WithError(err).Error("error loading agent card")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Agent card not available"})
		return
	}

	c.Data(http.StatusOK, "application/json", agent.AgentCardData)
}

// extractRequest collects the user's text parts. When the message carries
// conversation history as a data part, the most recent user text in it is
// used.
func (h *A2AHandler) extractRequest(msg A2AMessage) string {
	var texts []string

	for _, part := range msg.Parts {
		switch part.Kind {
		case "text":
			if t := cleanText(part.Text); t != "" {
				texts = append(texts, t)
			}
		case "data":
			if t := h.latestHistoryText(part.Data); t != "" {
				texts = append(texts, t)
			}
		}
	}

	return strings.TrimSpace(strings.Join(texts, " "))
}

func (h *A2AHandler) latestHistoryText(data any) string {
	if data == nil {
		return ""
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	var history []MessagePart
	if err := json.Unmarshal(raw, &history); err != nil {
		h.logger.WithError(err).Debug("data part is not a message history")
		return ""
	}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Kind != "text" {
			continue
		}
		t := cleanText(history[i].Text)
		if t == "" || isProgressText(t) {
			continue
		}
		return t
	}
	return ""
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "<p>", "")
	s = strings.ReplaceAll(s, "</p>", "")
	return strings.TrimSpace(s)
}

// isProgressText reports whether t looks like an agent's progress message
// echoed back in the history rather than a user request.
func isProgressText(t string) bool {
	lower := strings.ToLower(t)
	if strings.Trim(lower, ".") == "" {
		return true
	}
	return strings.Contains(lower, "generating") || strings.Contains(lower, "analysing") || strings.Contains(lower, "analyzing")
}

func (h *A2AHandler) createSuccessTaskResult(taskID string, st wizard.State) TaskResult {
	responseText := h.formatReport(st)

	return TaskResult{
		ID:   taskID,
		Kind: "task",
		Status: TaskStatus{
			State:     StateCompleted,
			Timestamp: Timestamp(),
			Message:   AgentMessage(taskID, TextPart(responseText)),
		},
		Artifacts: []Artifact{
			{
				ArtifactID: uuid.New().String(),
				Name:       "Business Idea Plan",
				Parts:      []MessagePart{TextPart(responseText)},
			},
			{
				ArtifactID: uuid.New().String(),
				Name:       "Wizard State",
				Parts:      []MessagePart{DataPart(st)},
			},
		},
	}
}

func (h *A2AHandler) createErrorTaskResult(taskID string, errorMsg string) TaskResult {
	return TaskResult{
		ID:   taskID,
		Kind: "task",
		Status: TaskStatus{
			State:     StateFailed,
			Timestamp: Timestamp(),
			Message:   AgentMessage(taskID, TextPart(errorMsg)),
		},
	}
}

// failureText names the stage that failed when there is one.
func failureText(st wizard.State, err error) string {
	if errors.Is(err, wizard.ErrStageFailed) {
		for _, stage := range wizard.Stages() {
			if status, msg := st.StatusOf(stage); status == wizard.StatusFailed {
				return "Sorry, I " + msg + ". Please try again."
			}
		}
	}
	return fmt.Sprintf("Failed to generate a business plan: %v", err)
}

func (h *A2AHandler) formatReport(st wizard.State) string {
	in := st.Market.Inputs
	var b strings.Builder

	industry := in.Industry()
	if industry == "" {
		industry = "any industry"
	}
	fmt.Fprintf(&b, "# Business Idea Plan: %s", industry)
	if in.Location != "" {
		fmt.Fprintf(&b, " in %s", in.Location)
	}
	b.WriteString("\n\n")

	b.WriteString("## Market Analysis\n")
	b.WriteString(st.Market.Result.Summary + "\n\n")
	for _, need := range st.Market.Result.MarketNeeds {
		fmt.Fprintf(&b, "- %s (score %d): %s\n", need.Need, need.Score, need.Description)
	}

	need := st.Market.SelectedNeed
	product := st.Recommendation.SelectedProduct
	fmt.Fprintf(&b, "\n## Recommended Product\n**%s** (score %d) for the need \"%s\"\n", product.Name, product.Score, need.Need)
	fmt.Fprintf(&b, "- Benefits: %s\n- Weaknesses: %s\n", product.Benefits, product.Weaknesses)

	guide := st.Guide.Guide
	b.WriteString("\n## MVP Guide\n")
	for _, step := range guide.Steps {
		fmt.Fprintf(&b, "%d. %s (%s, %s)\n", step.Phase, step.Activity, step.EstimatedTime, h.money.Rupiah(step.EstimatedCost))
	}
	fmt.Fprintf(&b, "\nTotal MVP cost: %s\n", h.money.Rupiah(guide.TotalCost()))

	strategy := st.Promo.Strategy
	fmt.Fprintf(&b, "\n## Promotion Strategy (%s to %s)\n", st.Promo.Inputs.StartDate, st.Promo.Inputs.EndDate)
	for _, item := range strategy.Plan {
		fmt.Fprintf(&b, "- %s: %s", item.Timeline, item.Activity)
		if item.Tools != "" {
			fmt.Fprintf(&b, " using %s", item.Tools)
		}
		fmt.Fprintf(&b, ", %s, due %s\n", h.money.Rupiah(item.EstimatedCost), item.Deadline)
	}
	fmt.Fprintf(&b, "\nTotal promotion cost: %s\n", h.money.Rupiah(strategy.TotalCost()))

	fmt.Fprintf(&b, "\nSession `%s`: download the report from /api/sessions/%s/export/pdf or /export/xlsx.\n", st.ID, st.ID)
	return b.String()
}

func (h *A2AHandler) sendSuccessResponse(c *gin.Context, id any, result any) {
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (h *A2AHandler) sendErrorResponse(c *gin.Context, id any, message string, code int) {
	h.logger.WithFields(logrus.Fields{"code": code, "message": message}).Warn("sending JSON-RPC error")

	// JSON-RPC errors are sent with 200 OK
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	})
}

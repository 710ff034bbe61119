package handlers

import (
	"net/http"

	"github.com/BaSui01/tripflow/agent/specialist"
)

// =============================================================================
// 🤖 Agent 列表与 API 信息 Handler
// =============================================================================

// AgentInfo 对外公布的 Agent 描述
type AgentInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	Tools        []string `json:"tools"`
}

// AgentListResponse Agent 列表响应
type AgentListResponse struct {
	Agents []AgentInfo `json:"agents"`
}

// APIInfo 根端点返回的 API 信息
type APIInfo struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// AgentsHandler 静态 Agent 列表处理器。
// 三个专家在编译期固定，列表不走注册中心。
type AgentsHandler struct {
	version string
}

// NewAgentsHandler 创建 Agent 列表处理器
func NewAgentsHandler(version string) *AgentsHandler {
	if version == "" {
		version = "1.0.0"
	}
	return &AgentsHandler{version: version}
}

// HandleListAgents 列出三个旅行专家及其能力
// @Summary Agent 列表
// @Description 返回旅行规划、机票、酒店三个专家的能力描述
// @Tags Agent
// @Produce json
// @Success 200 {object} AgentListResponse "Agent 列表"
// @Router /api/v1/agents [get]
func (h *AgentsHandler) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, AgentListResponse{
		Agents: []AgentInfo{
			{
				ID:           specialist.AgentPlanner,
				Name:         "Travel Planner",
				Description:  "Main travel planning agent",
				Capabilities: []string{"weather information", "travel itineraries", "agent handoffs"},
				Tools:        []string{"get_weather_forecast"},
			},
			{
				ID:           specialist.AgentFlight,
				Name:         "Flight Specialist",
				Description:  "Specialist for flight searches and recommendations",
				Capabilities: []string{"flight search", "flight recommendations"},
				Tools:        []string{"search_flights"},
			},
			{
				ID:           specialist.AgentHotel,
				Name:         "Hotel Specialist",
				Description:  "Specialist for hotel searches and recommendations",
				Capabilities: []string{"hotel search", "hotel recommendations"},
				Tools:        []string{"search_hotels"},
			},
		},
	})
}

// HandleRoot 返回 API 信息
// @Summary API 信息
// @Description 返回服务名称、版本与端点一览
// @Tags 信息
// @Produce json
// @Success 200 {object} APIInfo "API 信息"
// @Router / [get]
func (h *AgentsHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, APIInfo{
		Message: "Travel Agent API",
		Version: h.version,
		Endpoints: map[string]string{
			"/":               "API information",
			"/query":          "POST - Submit travel queries",
			"/health":         "GET - Health check",
			"/ready":          "GET - Readiness check",
			"/version":        "GET - Build information",
			"/api/v1/query":   "POST - Submit travel queries",
			"/api/v1/agents":  "GET - List available agents",
			"/api/v1/history": "GET - Recent query records",
		},
	})
}

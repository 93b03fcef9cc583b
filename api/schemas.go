package api

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type AgentInfo struct {
	Name   string `json:"name"`
	Action string `json:"action,omitempty"`
}

type ChatResponse struct {
	Message               string    `json:"message"`
	SessionID             string    `json:"session_id"`
	Agent                 AgentInfo `json:"agent"`
	ConversationStatus    string    `json:"conversation_status"`
	CustomerAuthenticated bool      `json:"customer_authenticated"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status           string `json:"status"`
	API              string `json:"api"`
	Policies         string `json:"policies"`
	PolicyChunkCount int    `json:"policy_chunk_count"`
	LLM              string `json:"llm"`
}

type ConfigResponse struct {
	LLMModel    string   `json:"llm_model"`
	Environment string   `json:"environment"`
	ChunkSize   int      `json:"chunk_size"`
	TopKResults int      `json:"top_k_results"`
	Tools       []string `json:"tools"`
}

type RootResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

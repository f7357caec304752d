package rgload

// rawDoc mirrors graph.Definition as a plain, tag-driven document shape a
// graph author hand-writes in YAML or JSON (§6's declarative document
// shape). It decodes before any Kind/LoopKind resolution happens, so one
// struct serves both encoders via matching yaml/json tags.
type rawDoc struct {
	ID    string    `yaml:"id" json:"id"`
	Nodes []rawNode `yaml:"nodes" json:"nodes"`
	Edges []rawEdge `yaml:"edges" json:"edges"`
}

type rawNode struct {
	ID   string `yaml:"id" json:"id"`
	Type string `yaml:"type" json:"type"`

	Description  string            `yaml:"description,omitempty" json:"description,omitempty"`
	Dependencies []string          `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	FieldMapping map[string]string `yaml:"field_mappings,omitempty" json:"field_mappings,omitempty"`
	Params       []string          `yaml:"params,omitempty" json:"params,omitempty"`
	Database     string            `yaml:"database,omitempty" json:"database,omitempty"`

	RuleSource string `yaml:"rule_source,omitempty" json:"rule_source,omitempty"`
	RuleRef    string `yaml:"rule_ref,omitempty" json:"rule_ref,omitempty"`

	QueryTemplate string `yaml:"query_template,omitempty" json:"query_template,omitempty"`

	Provider       string   `yaml:"provider,omitempty" json:"provider,omitempty"`
	Model          string   `yaml:"model,omitempty" json:"model,omitempty"`
	PromptTemplate string   `yaml:"prompt_template,omitempty" json:"prompt_template,omitempty"`
	SystemPrompt   string   `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`
	Tools          []string `yaml:"tools,omitempty" json:"tools,omitempty"`
	ResponseFormat string   `yaml:"response_format,omitempty" json:"response_format,omitempty"`

	ConditionExpr string `yaml:"condition_expr,omitempty" json:"condition_expr,omitempty"`
	TrueBranchID  string `yaml:"true_branch_id,omitempty" json:"true_branch_id,omitempty"`
	FalseBranchID string `yaml:"false_branch_id,omitempty" json:"false_branch_id,omitempty"`

	LoopKind     string `yaml:"loop_kind,omitempty" json:"loop_kind,omitempty"`
	BodyNodeID   string `yaml:"body_node_id,omitempty" json:"body_node_id,omitempty"`
	MaxIteration int    `yaml:"max_iteration,omitempty" json:"max_iteration,omitempty"`
	ItemsKey     string `yaml:"items_key,omitempty" json:"items_key,omitempty"`
	ItemVar      string `yaml:"item_var,omitempty" json:"item_var,omitempty"`

	TryNodeID     string `yaml:"try_node_id,omitempty" json:"try_node_id,omitempty"`
	CatchNodeID   string `yaml:"catch_node_id,omitempty" json:"catch_node_id,omitempty"`
	FinallyNodeID string `yaml:"finally_node_id,omitempty" json:"finally_node_id,omitempty"`

	TargetNodeID string `yaml:"target_node_id,omitempty" json:"target_node_id,omitempty"`
	MaxAttempts  int    `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty"`
	BackoffMS    int    `yaml:"backoff_ms,omitempty" json:"backoff_ms,omitempty"`
	Exponential  bool   `yaml:"exponential,omitempty" json:"exponential,omitempty"`

	FailureThreshold int `yaml:"failure_threshold,omitempty" json:"failure_threshold,omitempty"`
	TimeoutMS        int `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty"`

	InnerGraph   *rawDoc           `yaml:"inner_graph,omitempty" json:"inner_graph,omitempty"`
	InputMapping map[string]string `yaml:"input_mapping,omitempty" json:"input_mapping,omitempty"`
	OutputKey    string            `yaml:"output_key,omitempty" json:"output_key,omitempty"`
}

type rawEdge struct {
	From  string `yaml:"from" json:"from"`
	To    string `yaml:"to" json:"to"`
	Guard string `yaml:"guard,omitempty" json:"guard,omitempty"`
}

// =============================================================================
// 📦 测试数据工厂 - Blueprint 与节点类型
// =============================================================================
// 提供预定义的节点类型注册表和 Blueprint，用于测试
// =============================================================================
package fixtures

import (
	"fmt"

	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/nodetype"
)

// =============================================================================
// 🧩 节点类型工厂
// =============================================================================

// Definitions 返回测试用的最小节点类型集合
func Definitions() []nodetype.Definition {
	return []nodetype.Definition{
		{
			Type:         "trigger",
			Category:     "trigger",
			Name:         "Trigger",
			Template:     nodetype.Template{TargetType: "n8n-nodes-base.webhook", TypeVersion: 2},
			Capabilities: nodetype.Capabilities{Trigger: true},
		},
		{
			Type:     "reply",
			Category: "reply",
			Name:     "Reply",
			Inputs: []nodetype.ParamSpec{
				{Name: "text", Type: nodetype.ParamString},
				{Name: "options", Type: nodetype.ParamObject},
			},
			Template: nodetype.Template{
				TargetType:  "n8n-nodes-base.respondToWebhook",
				TypeVersion: 1.1,
				Parameters: map[string]any{
					"respondWith": "text",
					"options":     map[string]any{"retries": float64(3)},
				},
				Credentials: map[string]any{"api": map[string]any{"id": "cred-1"}},
			},
		},
		{
			Type:     "condition",
			Category: "condition",
			Name:     "If",
			Outputs:  []nodetype.OutputSpec{{Name: "true"}, {Name: "false"}},
			Template: nodetype.Template{TargetType: "n8n-nodes-base.if"},
		},
		{
			Type:         "loop",
			Category:     "flow",
			Name:         "Loop",
			Template:     nodetype.Template{TargetType: "n8n-nodes-base.splitInBatches", TypeVersion: 3},
			Capabilities: nodetype.Capabilities{AllowsCycles: true},
		},
		{
			Type:         "end",
			Category:     "flow",
			Name:         "End",
			Template:     nodetype.Template{TargetType: "n8n-nodes-base.noOp"},
			Capabilities: nodetype.Capabilities{Terminal: true},
		},
	}
}

// Registry 返回基于 Definitions 的注册表，构造失败时 panic
func Registry() *nodetype.Registry {
	reg, err := nodetype.NewRegistry(Definitions()...)
	if err != nil {
		panic(err)
	}
	return reg
}

// =============================================================================
// 🗺️ Blueprint 工厂
// =============================================================================

// NewBlueprint 返回带有完整元数据的空 Blueprint
func NewBlueprint() *blueprint.Blueprint {
	return &blueprint.Blueprint{
		OwnerID:     "owner-1",
		Version:     "v1",
		Name:        "fixture",
		Description: "fixture blueprint",
	}
}

// Node 创建节点
func Node(id, typ string) blueprint.Node {
	return blueprint.Node{ID: id, Type: typ}
}

// Edge 创建 main 分支的边，id 由端点推导
func Edge(src, dst string) blueprint.Edge {
	return blueprint.Edge{ID: src + "->" + dst, Source: src, Target: dst}
}

// BranchEdge 创建指定分支的边
func BranchEdge(src, branch, dst string) blueprint.Edge {
	return blueprint.Edge{ID: src + "." + branch + "->" + dst, Source: src, Target: dst, SourceHandle: branch}
}

// TriggerReply 返回 trigger(t1) -> reply(r1) 的最小工作流
func TriggerReply() *blueprint.Blueprint {
	bp := NewBlueprint()
	bp.Nodes = []blueprint.Node{Node("t1", "trigger"), Node("r1", "reply")}
	bp.Edges = []blueprint.Edge{Edge("t1", "r1")}
	return bp
}

// Triangle 返回 a -> b -> c -> a 的环形工作流
func Triangle(typ string) *blueprint.Blueprint {
	bp := NewBlueprint()
	bp.Nodes = []blueprint.Node{Node("a", typ), Node("b", typ), Node("c", typ)}
	bp.Edges = []blueprint.Edge{Edge("a", "b"), Edge("b", "c"), Edge("c", "a")}
	return bp
}

// Chain 返回 n 个 reply 节点组成的线性工作流 n0 -> n1 -> ...
func Chain(n int) *blueprint.Blueprint {
	bp := NewBlueprint()
	for i := 0; i < n; i++ {
		bp.Nodes = append(bp.Nodes, Node(fmt.Sprintf("n%d", i), "reply"))
		if i > 0 {
			bp.Edges = append(bp.Edges, Edge(fmt.Sprintf("n%d", i-1), fmt.Sprintf("n%d", i)))
		}
	}
	return bp
}

// SupportBot 返回使用内置目录类型的客服机器人工作流
func SupportBot() *blueprint.Blueprint {
	return &blueprint.Blueprint{
		OwnerID:     "owner-1",
		Version:     "v3",
		Name:        "Support Bot",
		Description: "Answers FAQs and escalates to a human",
		Nodes: []blueprint.Node{
			{ID: "start", Type: "trigger.message", Config: map[string]any{"channel": "telegram"}},
			{ID: "check", Type: "condition.if", Config: map[string]any{
				"conditions": map[string]any{"string": []any{map[string]any{"value1": "{{$json.text}}", "operation": "contains", "value2": "human"}}},
			}},
			{ID: "ai", Type: "ai.chat", Name: "Answer", Config: map[string]any{"prompt": "Answer politely: {{$json.text}}", "options.temperature": 0.2}},
			{ID: "handoff", Type: "http.request", Config: map[string]any{"url": "https://crm.example.com/tickets", "method": "POST", "options.timeout": float64(30)}},
			{ID: "reply", Type: "reply.text", Config: map[string]any{"text": "{{$json.output}}"}},
			{ID: "done", Type: "flow.end"},
		},
		Edges: []blueprint.Edge{
			{ID: "e1", Source: "start", Target: "check"},
			{ID: "e2", Source: "check", Target: "ai", SourceHandle: "false"},
			{ID: "e3", Source: "check", Target: "handoff", SourceHandle: "true"},
			{ID: "e4", Source: "ai", Target: "reply"},
			{ID: "e5", Source: "handoff", Target: "reply"},
			{ID: "e6", Source: "reply", Target: "done"},
		},
	}
}

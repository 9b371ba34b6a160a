package enum

type ConversationType string

const (
	DIRECT ConversationType = "direct"
	GROUP  ConversationType = "group"
)

func (t ConversationType) IsValid() bool {
	switch t {
	case DIRECT, GROUP:
		return true
	}
	return false
}

type ConversationScope string

const (
	ScopeInternal    ConversationScope = "internal"
	ScopeExternal    ConversationScope = "external"
	ScopeCrossTenant ConversationScope = "cross_tenant"
)

func (s ConversationScope) IsValid() bool {
	switch s {
	case ScopeInternal, ScopeExternal, ScopeCrossTenant:
		return true
	}
	return false
}

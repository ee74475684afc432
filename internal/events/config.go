package events

// Event types for configuration editing.
const (
	TypeConfigLoaded          = "config_loaded"
	TypeConfigChanged         = "config_changed"
	TypeConfigSaved           = "config_saved"
	TypeConfigSaveFailed      = "config_save_failed"
	TypeCustomizationsCleared = "customizations_cleared"
	TypeProfileDetected       = "profile_detected"
	TypeStoreChanged          = "store_changed"
)

// ConfigLoadedEvent is emitted when an editing session is (re)loaded.
type ConfigLoadedEvent struct {
	BaseEvent
	Target      string `json:"target"`
	CustomCount int    `json:"custom_count"`
	RuleCount   int    `json:"rule_count"`
}

// NewConfigLoadedEvent creates a config_loaded event.
func NewConfigLoadedEvent(scope, target string, customCount, ruleCount int) ConfigLoadedEvent {
	return ConfigLoadedEvent{
		BaseEvent:   NewBaseEvent(TypeConfigLoaded, scope),
		Target:      target,
		CustomCount: customCount,
		RuleCount:   ruleCount,
	}
}

// ConfigChangedEvent is emitted after an edit is accepted into a session.
type ConfigChangedEvent struct {
	BaseEvent
	Op   string `json:"op"` // set | reset | reset_all | rule_add | rule_edit | rule_remove | rule_reset | apply
	Path string `json:"path,omitempty"`
	Rule string `json:"rule_id,omitempty"`
}

// NewConfigChangedEvent creates a config_changed event.
func NewConfigChangedEvent(scope, op, path, ruleID string) ConfigChangedEvent {
	return ConfigChangedEvent{
		BaseEvent: NewBaseEvent(TypeConfigChanged, scope),
		Op:        op,
		Path:      path,
		Rule:      ruleID,
	}
}

// ConfigSavedEvent is emitted when a diff was persisted.
type ConfigSavedEvent struct {
	BaseEvent
	Set          int `json:"set"`
	Unset        int `json:"unset"`
	Rules        int `json:"rules"`
	RemovedRules int `json:"removed_rules"`
}

// NewConfigSavedEvent creates a config_saved event.
func NewConfigSavedEvent(scope string, set, unset, rules, removed int) ConfigSavedEvent {
	return ConfigSavedEvent{
		BaseEvent:    NewBaseEvent(TypeConfigSaved, scope),
		Set:          set,
		Unset:        unset,
		Rules:        rules,
		RemovedRules: removed,
	}
}

// ConfigSaveFailedEvent is emitted when persisting a diff failed. The
// session keeps its pending edits.
type ConfigSaveFailedEvent struct {
	BaseEvent
	Error string `json:"error"`
}

// NewConfigSaveFailedEvent creates a config_save_failed event.
func NewConfigSaveFailedEvent(scope string, err error) ConfigSaveFailedEvent {
	return ConfigSaveFailedEvent{
		BaseEvent: NewBaseEvent(TypeConfigSaveFailed, scope),
		Error:     err.Error(),
	}
}

// CustomizationsClearedEvent is emitted when a scope's stored layer was deleted.
type CustomizationsClearedEvent struct {
	BaseEvent
}

// NewCustomizationsClearedEvent creates a customizations_cleared event.
func NewCustomizationsClearedEvent(scope string) CustomizationsClearedEvent {
	return CustomizationsClearedEvent{BaseEvent: NewBaseEvent(TypeCustomizationsCleared, scope)}
}

// ProfileDetectedEvent is emitted after profile detection.
type ProfileDetectedEvent struct {
	BaseEvent
	Detected   bool    `json:"detected"`
	PresetID   string  `json:"preset_id,omitempty"`
	Confidence float64 `json:"confidence"`
}

// NewProfileDetectedEvent creates a profile_detected event.
func NewProfileDetectedEvent(scope string, detected bool, presetID string, confidence float64) ProfileDetectedEvent {
	return ProfileDetectedEvent{
		BaseEvent:  NewBaseEvent(TypeProfileDetected, scope),
		Detected:   detected,
		PresetID:   presetID,
		Confidence: confidence,
	}
}

// StoreChangedEvent is emitted when stored configuration changed outside
// the engine, such as a file edited by hand.
type StoreChangedEvent struct {
	BaseEvent
	Path string `json:"path"`
}

// NewStoreChangedEvent creates a store_changed event.
func NewStoreChangedEvent(scope, path string) StoreChangedEvent {
	return StoreChangedEvent{
		BaseEvent: NewBaseEvent(TypeStoreChanged, scope),
		Path:      path,
	}
}

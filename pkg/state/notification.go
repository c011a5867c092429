// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package state

// NotificationType is the closed set of triggers that can drive the spine
// into (re)starting an LLM stream.
type NotificationType string

const (
	NotifUserMessage       NotificationType = "user_message"
	NotifReloadResume      NotificationType = "reload_resume"
	NotifTodoIncomplete    NotificationType = "todo_incomplete"
	NotifMaxTokensTrunc    NotificationType = "max_tokens_truncated"
	NotifCustom            NotificationType = "custom"
)

// Label returns a short human-facing label for the notification type.
func (t NotificationType) Label() string {
	switch t {
	case NotifUserMessage:
		return "User message"
	case NotifReloadResume:
		return "Resume after reload"
	case NotifTodoIncomplete:
		return "Todos incomplete"
	case NotifMaxTokensTrunc:
		return "Truncated at max tokens"
	case NotifCustom:
		return "Custom"
	default:
		return string(t)
	}
}

// Notification is the single trigger type that starts or continues an LLM
// stream; it is appended by any producer and consumed (marked Processed) by
// the spine.
type Notification struct {
	ID          string           `json:"id"` // "N1", "N2", ...
	Type        NotificationType `json:"type"`
	Source      string           `json:"source"`
	Processed   bool             `json:"processed"`
	TimestampMs int64            `json:"timestamp_ms"`
	Content     string           `json:"content"`
}

// NewNotification builds an unprocessed notification.
func NewNotification(id string, typ NotificationType, source, content string, timestampMs int64) Notification {
	return Notification{
		ID:          id,
		Type:        typ,
		Source:      source,
		Content:     content,
		TimestampMs: timestampMs,
	}
}

// ContinuationAction is the spine's decision for how to re-enter the LLM
// loop for a given notification: either inject a synthetic user turn, or
// relaunch the stream with no new turn (e.g. resuming after a reload, or
// continuing a max-tokens truncation).
type ContinuationAction struct {
	Relaunch         bool
	SyntheticMessage string // meaningful only when Relaunch is false
}

// DecideContinuation maps a notification to the ContinuationAction the spine
// takes for it, per the four-way rule in the spine's main-loop step.
func DecideContinuation(n Notification, todoSummary string) ContinuationAction {
	switch n.Type {
	case NotifMaxTokensTrunc, NotifReloadResume:
		return ContinuationAction{Relaunch: true}
	case NotifTodoIncomplete:
		return ContinuationAction{SyntheticMessage: "Continue with remaining todos:\n" + todoSummary}
	case NotifUserMessage:
		return ContinuationAction{} // the user's message is already appended
	default: // custom
		return ContinuationAction{SyntheticMessage: n.Content}
	}
}

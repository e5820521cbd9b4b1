package store

import (
	"fmt"

	"course-pr-be/pkg/document"
)

// State is the closed set of conversational states an edit session can be in.
// Transitions are handled exhaustively in the session machine; an unknown
// state is treated as corruption and destroys the session.
type State string

const (
	// StateIdle: document selected, no edit in progress.
	StateIdle State = "IDLE"

	// add flow
	StateAwaitSectionTitle State = "AWAIT_SECTION_TITLE"
	StateAwaitNewContent   State = "AWAIT_NEW_CONTENT"

	// modify flow
	StateAwaitOldParagraph   State = "AWAIT_OLD_PARAGRAPH"
	StateAwaitDisambiguation State = "AWAIT_DISAMBIGUATION"

	// attribution sub-chain
	StateAwaitAttributionChoice State = "AWAIT_ATTRIB_CHOICE"
	StateAwaitAttributionName   State = "AWAIT_ATTRIB_NAME"
	StateAwaitAttributionLink   State = "AWAIT_ATTRIB_LINK"

	// staged patch waiting for the user's go-ahead
	StateAwaitConfirmation State = "AWAIT_CONFIRMATION"
)

// Op distinguishes what the staged edit will do once the attribution chain
// completes.
type Op string

const (
	OpAppendItem   Op = "APPEND_ITEM"   // new item in a section
	OpAppendReview Op = "APPEND_REVIEW" // new review under a teacher
	OpEditItem     Op = "EDIT_ITEM"     // positional edit by section+index
	OpModify       Op = "MODIFY"        // locate-based paragraph replacement
	OpFullDocument Op = "FULL_DOCUMENT" // replace the whole document text
)

// Session is the per-(conversation,user) editing state. It lives only in the
// session store; no other component keeps a reference across turns.
type Session struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`

	// selected document
	RepoName   string `json:"repo_name"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	RepoType   string `json:"repo_type"`

	State State `json:"state"`
	Op    Op    `json:"op"`

	// add/edit targeting
	SubCourse    string `json:"sub_course,omitempty"`
	SectionTitle string `json:"section_title,omitempty"`
	TeacherName  string `json:"teacher_name,omitempty"`
	ItemIndex    int    `json:"item_index"` // -1 when not positional

	// modify flow
	OldParagraph string               `json:"old_paragraph,omitempty"`
	NewParagraph string               `json:"new_paragraph,omitempty"`
	Candidates   []document.Candidate `json:"candidates,omitempty"`
	Target       *document.NodeRef    `json:"target,omitempty"`

	// the document text the location was computed against; patches re-validate
	// against it before anything is staged
	BaseTOML string `json:"base_toml,omitempty"`

	// attribution answers
	WantAttribution bool   `json:"want_attribution"`
	AuthorName      string `json:"author_name,omitempty"`
	AuthorLink      string `json:"author_link,omitempty"`

	// finished patch staged for confirmation; never submitted before the user
	// affirms
	PatchedTOML string `json:"patched_toml,omitempty"`
}

// Key builds the session store key for a (conversation, user) pair.
func Key(conversationID, userID string) string {
	return fmt.Sprintf("%s:%s", conversationID, userID)
}

// Key returns the session's own store key.
func (s *Session) Key() string {
	return Key(s.ConversationID, s.UserID)
}

// NewSession creates an idle session for a freshly selected document.
func NewSession(conversationID, userID, repoName, courseCode, courseName, repoType string) *Session {
	return &Session{
		ConversationID: conversationID,
		UserID:         userID,
		RepoName:       repoName,
		CourseCode:     courseCode,
		CourseName:     courseName,
		RepoType:       repoType,
		State:          StateIdle,
		ItemIndex:      -1,
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"course-pr-be/internal/dto"
	"course-pr-be/internal/pkg/logger"
	"course-pr-be/internal/repository/memory"
	"course-pr-be/pkg/document"
	"course-pr-be/pkg/moderation"
	"course-pr-be/pkg/prserver"
	"course-pr-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const (
	maxCandidatesShown = 8
	minOldParagraph    = 10
	minFullDocument    = 20
	confirmPreviewMax  = 200
	replyChunkMax      = 1800
)

const helpText = `Course review PR assistant. Commands:
/pr start <repo>          select a course repository
/pr show                  print the current document
/pr structure             print a structural outline
/pr add [section]         add a new item (asks for the section when omitted)
/pr review <teacher>      add a review for a teacher
/pr modify                replace a paragraph by quoting part of it
/pr edit <section> <n>    rewrite item n of a section
/pr subcourse <name> [code]  add a sub-course (multi-project repos)
/pr cancel                abandon the session
/pr help                  this message
In a multi-project repo, target a sub-course with "<course>::<section>".
Pasting a whole document while idle stages it as a full replacement.`

type IPREntryService interface {
	Dispatch(ctx context.Context, req *dto.DispatchRequest) (*dto.DispatchResponse, error)
}

type prEntryService struct {
	sessions  *memory.SessionRepository
	lookup    prserver.IClient
	moderator moderation.IModerator
	pubSub    *gochannel.GoChannel
	topicName string
	logger    logger.ILogger
	allowed   map[string]struct{}
}

func NewPREntryService(
	sessions *memory.SessionRepository,
	lookup prserver.IClient,
	moderator moderation.IModerator,
	pubSub *gochannel.GoChannel,
	topicName string,
	allowedUsers []string,
	log logger.ILogger,
) IPREntryService {
	var allowed map[string]struct{}
	if len(allowedUsers) > 0 {
		allowed = make(map[string]struct{}, len(allowedUsers))
		for _, u := range allowedUsers {
			allowed[u] = struct{}{}
		}
	}
	return &prEntryService{
		sessions:  sessions,
		lookup:    lookup,
		moderator: moderator,
		pubSub:    pubSub,
		topicName: topicName,
		logger:    log,
		allowed:   allowed,
	}
}

// Dispatch advances the (conversation, user) session with one message and
// returns the replies. Handling is serialized per session key; distinct keys
// run concurrently.
func (s *prEntryService) Dispatch(ctx context.Context, req *dto.DispatchRequest) (*dto.DispatchResponse, error) {
	key := store.Key(req.ConversationID, req.UserID)
	unlock := s.sessions.Lock(key)
	defer unlock()

	replies := s.handle(ctx, key, req)
	return &dto.DispatchResponse{Replies: replies}, nil
}

func (s *prEntryService) handle(ctx context.Context, key string, req *dto.DispatchRequest) []string {
	text := strings.TrimSpace(req.Text)
	sess, hasSession := s.sessions.Get(key)

	cmd, args, isCommand := parseCommand(text)

	// help and cancel are accepted in every state
	if isCommand && cmd == "help" {
		return []string{helpText}
	}
	if isCommand && cmd == "cancel" {
		return s.handleCancel(key, hasSession)
	}
	if isCommand && cmd == "start" {
		return s.handleStart(ctx, key, req, args)
	}

	if !hasSession {
		return []string{"No active session. Use /pr start <repo> to select a course, or /pr help."}
	}

	if sess.State != store.StateIdle {
		if isCommand {
			return []string{"Finish or /pr cancel the current edit first."}
		}
		return s.advance(ctx, key, sess, req, text)
	}

	if isCommand {
		return s.handleIdleCommand(ctx, key, sess, cmd, args)
	}

	// a long non-command message while idle is a full replacement document
	if len(document.NormalizeText(text)) >= minFullDocument {
		return s.stageFullDocument(key, sess, text)
	}
	return []string{"Unrecognized input. Use /pr help for commands."}
}

// parseCommand splits "/pr <cmd> <args...>" messages. Anything else is plain
// text for the current state.
func parseCommand(text string) (cmd, args string, ok bool) {
	if !strings.HasPrefix(text, "/pr") {
		return "", "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(text, "/pr"))
	if rest == "" {
		return "help", "", true
	}
	parts := strings.SplitN(rest, " ", 2)
	cmd = strings.ToLower(parts[0])
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}
	return cmd, args, true
}

// --- session lifecycle ---

func (s *prEntryService) handleStart(ctx context.Context, key string, req *dto.DispatchRequest, repoName string) []string {
	if repoName == "" {
		return []string{"Usage: /pr start <repo>"}
	}
	if s.allowed != nil {
		if _, ok := s.allowed[req.UserID]; !ok {
			return []string{"You are not permitted to open edit sessions."}
		}
	}

	res, err := s.lookup.GetCourseTOML(ctx, repoName)
	if err != nil {
		s.logger.Error("PREntryService", "course lookup failed", map[string]interface{}{"repo": repoName, "error": err.Error()})
		return []string{fmt.Sprintf("Could not fetch %q: %v", repoName, err)}
	}

	doc, err := document.Parse(res.TOML)
	if err != nil {
		return []string{fmt.Sprintf("The document for %q could not be parsed: %v", repoName, err)}
	}

	sess := store.NewSession(req.ConversationID, req.UserID, repoName, doc.CourseCode(), doc.CourseName(), doc.RepoType())
	sess.BaseTOML = res.TOML
	s.sessions.Save(sess)

	return []string{fmt.Sprintf("Editing %s (%s). Use /pr help for commands.", sess.CourseName, sess.CourseCode)}
}

func (s *prEntryService) handleCancel(key string, hasSession bool) []string {
	if !hasSession {
		return []string{"Nothing to cancel."}
	}
	// cancel is terminal in every state; a fresh /pr start reselects the course
	s.sessions.Delete(key)
	return []string{"Cancelled. The session was closed."}
}

// --- idle commands ---

func (s *prEntryService) handleIdleCommand(ctx context.Context, key string, sess *store.Session, cmd, args string) []string {
	switch cmd {
	case "show":
		return s.handleShow(ctx, key, sess)
	case "structure":
		return s.handleStructure(ctx, sess)
	case "add":
		return s.handleAdd(ctx, key, sess, args)
	case "review":
		return s.handleReview(ctx, key, sess, args)
	case "modify":
		return s.handleModify(ctx, key, sess)
	case "edit":
		return s.handleEdit(ctx, key, sess, args)
	case "subcourse":
		return s.handleSubCourse(ctx, key, sess, args)
	default:
		return []string{fmt.Sprintf("Unknown command %q. Use /pr help.", cmd)}
	}
}

// refresh pulls the latest document text into the session so edits are
// located against a fresh snapshot. A lookup failure leaves the session
// untouched so a retry is cheap.
func (s *prEntryService) refresh(ctx context.Context, sess *store.Session) error {
	res, err := s.lookup.GetCourseTOML(ctx, sess.RepoName)
	if err != nil {
		return err
	}
	if _, err := document.Parse(res.TOML); err != nil {
		return err
	}
	sess.BaseTOML = res.TOML
	return nil
}

func (s *prEntryService) handleShow(ctx context.Context, key string, sess *store.Session) []string {
	if err := s.refresh(ctx, sess); err != nil {
		return []string{fmt.Sprintf("Could not fetch the document: %v", err)}
	}
	s.sessions.Save(sess)

	doc, err := document.Parse(sess.BaseTOML)
	if err != nil {
		return []string{fmt.Sprintf("The stored document could not be parsed: %v", err)}
	}
	return renderDocument(doc)
}

func (s *prEntryService) handleStructure(ctx context.Context, sess *store.Session) []string {
	sum, err := s.lookup.GetCourseStructure(ctx, sess.RepoName)
	if err != nil {
		return []string{fmt.Sprintf("Could not fetch the structure: %v", err)}
	}
	return []string{renderStructure(sum)}
}

func (s *prEntryService) handleAdd(ctx context.Context, key string, sess *store.Session, args string) []string {
	if err := s.refresh(ctx, sess); err != nil {
		return []string{fmt.Sprintf("Could not fetch the document: %v", err)}
	}
	sess.Op = store.OpAppendItem
	if args == "" {
		sess.State = store.StateAwaitSectionTitle
		s.sessions.Save(sess)
		return []string{"Which section should the new item go into?"}
	}
	sess.SubCourse, sess.SectionTitle = splitTarget(args)
	sess.State = store.StateAwaitNewContent
	s.sessions.Save(sess)
	return []string{fmt.Sprintf("Adding to section %q. Send the new item text.", sess.SectionTitle)}
}

func (s *prEntryService) handleReview(ctx context.Context, key string, sess *store.Session, args string) []string {
	if args == "" {
		return []string{"Usage: /pr review <teacher>"}
	}
	if err := s.refresh(ctx, sess); err != nil {
		return []string{fmt.Sprintf("Could not fetch the document: %v", err)}
	}
	sess.Op = store.OpAppendReview
	sess.SubCourse, sess.TeacherName = splitTarget(args)
	sess.State = store.StateAwaitNewContent
	s.sessions.Save(sess)
	return []string{fmt.Sprintf("Adding a review for %q. Send the review text.", sess.TeacherName)}
}

func (s *prEntryService) handleModify(ctx context.Context, key string, sess *store.Session) []string {
	if err := s.refresh(ctx, sess); err != nil {
		return []string{fmt.Sprintf("Could not fetch the document: %v", err)}
	}
	sess.Op = store.OpModify
	sess.State = store.StateAwaitOldParagraph
	s.sessions.Save(sess)
	return []string{fmt.Sprintf("Quote part of the paragraph you want to change (at least %d characters).", minOldParagraph)}
}

func (s *prEntryService) handleEdit(ctx context.Context, key string, sess *store.Session, args string) []string {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return []string{"Usage: /pr edit <section> <item number>"}
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || n < 1 {
		return []string{"The item number must be a positive integer."}
	}
	target := strings.Join(fields[:len(fields)-1], " ")

	if err := s.refresh(ctx, sess); err != nil {
		return []string{fmt.Sprintf("Could not fetch the document: %v", err)}
	}
	doc, err := document.Parse(sess.BaseTOML)
	if err != nil {
		return []string{fmt.Sprintf("The stored document could not be parsed: %v", err)}
	}

	course, sectionTitle := splitTarget(target)
	sec := findSectionIn(doc, course, sectionTitle)
	if sec == nil {
		return []string{fmt.Sprintf("No section named %q.", sectionTitle)}
	}
	if n > len(sec.Items) {
		return []string{fmt.Sprintf("Section %q has only %d items.", sectionTitle, len(sec.Items))}
	}

	kind := document.KindSectionItem
	if course != "" {
		kind = document.KindCourseSectionItem
	}
	sess.Op = store.OpEditItem
	sess.SubCourse = course
	sess.SectionTitle = sectionTitle
	sess.ItemIndex = n - 1
	sess.Target = &document.NodeRef{Kind: kind, Course: course, Section: sectionTitle, Index: n - 1}
	sess.OldParagraph = document.NormalizeText(sec.Items[n-1].Content())
	sess.State = store.StateAwaitNewContent
	s.sessions.Save(sess)

	return []string{fmt.Sprintf("Rewriting item #%d of %q:\n%s\nSend the replacement text.", n, sectionTitle, truncate(sess.OldParagraph, confirmPreviewMax))}
}

func (s *prEntryService) handleSubCourse(ctx context.Context, key string, sess *store.Session, args string) []string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return []string{"Usage: /pr subcourse <name> [code]"}
	}
	name := fields[0]
	code := ""
	if len(fields) > 1 {
		code = fields[1]
	}
	if sess.RepoType != "multi-project" {
		return []string{"Sub-courses only exist in multi-project repositories."}
	}
	if err := s.refresh(ctx, sess); err != nil {
		return []string{fmt.Sprintf("Could not fetch the document: %v", err)}
	}

	doc, err := document.Parse(sess.BaseTOML)
	if err != nil {
		return []string{fmt.Sprintf("The stored document could not be parsed: %v", err)}
	}
	if err := doc.AppendSubCourse(name, code); err != nil {
		return []string{fmt.Sprintf("Could not add sub-course: %v", err)}
	}

	sess.Op = store.OpAppendItem
	sess.SubCourse = name
	sess.PatchedTOML = doc.Print()
	sess.NewParagraph = fmt.Sprintf("sub-course %s", name)
	sess.State = store.StateAwaitConfirmation
	s.sessions.Save(sess)

	return []string{fmt.Sprintf("Adding sub-course %q. Submit? (yes/no)", name)}
}

// --- non-command text per state ---

func (s *prEntryService) advance(ctx context.Context, key string, sess *store.Session, req *dto.DispatchRequest, text string) []string {
	switch sess.State {
	case store.StateAwaitSectionTitle:
		return s.onSectionTitle(key, sess, text)
	case store.StateAwaitNewContent:
		return s.onNewContent(key, sess, text)
	case store.StateAwaitOldParagraph:
		return s.onOldParagraph(key, sess, text)
	case store.StateAwaitDisambiguation:
		return s.onDisambiguation(key, sess, text)
	case store.StateAwaitAttributionChoice:
		return s.onAttributionChoice(ctx, key, sess, text)
	case store.StateAwaitAttributionName:
		return s.onAttributionName(key, sess, req, text)
	case store.StateAwaitAttributionLink:
		return s.onAttributionLink(ctx, key, sess, text)
	case store.StateAwaitConfirmation:
		return s.onConfirmation(ctx, key, sess, text)
	default:
		// unknown state means the stored session is corrupt
		s.sessions.Delete(key)
		s.logger.Error("PREntryService", "session in unknown state, destroyed", map[string]interface{}{"key": key, "state": string(sess.State)})
		return []string{"Internal session error; the session was closed. Start again with /pr start."}
	}
}

func (s *prEntryService) onSectionTitle(key string, sess *store.Session, text string) []string {
	if text == "" {
		return []string{"Send a section title."}
	}
	sess.SubCourse, sess.SectionTitle = splitTarget(text)
	sess.State = store.StateAwaitNewContent
	s.sessions.Save(sess)
	return []string{fmt.Sprintf("Adding to section %q. Send the new item text.", sess.SectionTitle)}
}

func (s *prEntryService) onNewContent(key string, sess *store.Session, text string) []string {
	if document.NormalizeText(text) == "" {
		return []string{"Send the text to add."}
	}
	sess.NewParagraph = text
	sess.State = store.StateAwaitAttributionChoice
	s.sessions.Save(sess)
	return []string{"Attach your name to this change? (yes/no)"}
}

func (s *prEntryService) onOldParagraph(key string, sess *store.Session, text string) []string {
	snippet := document.NormalizeText(text)
	if len([]rune(snippet)) < minOldParagraph {
		return []string{fmt.Sprintf("The quoted text must be at least %d characters.", minOldParagraph)}
	}

	doc, err := document.Parse(sess.BaseTOML)
	if err != nil {
		s.sessions.Delete(key)
		return []string{"The stored document is no longer parseable; the session was closed."}
	}

	candidates := doc.Locate(snippet)
	switch len(candidates) {
	case 0:
		return []string{"That text was not found. Quote a longer or more exact excerpt, or /pr cancel."}
	case 1:
		sess.OldParagraph = snippet
		ref := candidates[0].Ref
		sess.Target = &ref
		sess.State = store.StateAwaitNewContent
		s.sessions.Save(sess)
		return []string{fmt.Sprintf("Found in %s. Send the replacement paragraph.", ref.Describe())}
	default:
		sess.OldParagraph = snippet
		total := len(candidates)
		if len(candidates) > maxCandidatesShown {
			candidates = candidates[:maxCandidatesShown]
		}
		sess.Candidates = candidates
		sess.State = store.StateAwaitDisambiguation
		s.sessions.Save(sess)

		var b strings.Builder
		if total > len(candidates) {
			fmt.Fprintf(&b, "Found %d matches, showing the first %d. Reply with a number, or quote a longer excerpt:\n", total, len(candidates))
		} else {
			fmt.Fprintf(&b, "Found %d matches. Reply with a number:\n", total)
		}
		for i, c := range candidates {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, c.Ref.Describe(), c.Preview)
		}
		return []string{strings.TrimRight(b.String(), "\n")}
	}
}

func (s *prEntryService) onDisambiguation(key string, sess *store.Session, text string) []string {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > len(sess.Candidates) {
		return []string{fmt.Sprintf("Reply with a number between 1 and %d, or /pr cancel.", len(sess.Candidates))}
	}
	ref := sess.Candidates[n-1].Ref
	sess.Target = &ref
	sess.Candidates = nil
	sess.State = store.StateAwaitNewContent
	s.sessions.Save(sess)
	return []string{fmt.Sprintf("Selected %s. Send the replacement paragraph.", ref.Describe())}
}

func (s *prEntryService) onAttributionChoice(ctx context.Context, key string, sess *store.Session, text string) []string {
	switch {
	case isYes(text):
		sess.WantAttribution = true
		sess.State = store.StateAwaitAttributionName
		s.sessions.Save(sess)
		return []string{"Name to credit? (blank = your display name)"}
	case isNo(text):
		sess.WantAttribution = false
		return s.buildPatch(ctx, key, sess)
	default:
		return []string{"Please answer yes or no."}
	}
}

func (s *prEntryService) onAttributionName(key string, sess *store.Session, req *dto.DispatchRequest, text string) []string {
	name := strings.TrimSpace(text)
	if name == "" {
		name = req.DisplayName
	}
	if name == "" {
		name = req.UserID
	}
	sess.AuthorName = name
	sess.State = store.StateAwaitAttributionLink
	s.sessions.Save(sess)
	return []string{"Link to attach? (blank = none)"}
}

func (s *prEntryService) onAttributionLink(ctx context.Context, key string, sess *store.Session, text string) []string {
	sess.AuthorLink = strings.TrimSpace(text)
	return s.buildPatch(ctx, key, sess)
}

// --- patch building ---

func (s *prEntryService) buildPatch(ctx context.Context, key string, sess *store.Session) []string {
	// Re-fetch so the patch applies to the live document; the operations
	// re-validate and report drift instead of clobbering newer content. On a
	// lookup failure nothing advances, so resending the previous answer
	// retries.
	res, err := s.lookup.GetCourseTOML(ctx, sess.RepoName)
	if err != nil {
		return []string{fmt.Sprintf("Could not fetch the latest document: %v. Resend your last answer to retry.", err)}
	}
	doc, err := document.Parse(res.TOML)
	if err != nil {
		s.sessions.Delete(key)
		return []string{"The live document is no longer parseable; the session was closed."}
	}
	sess.BaseTOML = res.TOML

	var attr *document.Attribution
	if sess.WantAttribution {
		attr = &document.Attribution{
			Name: sess.AuthorName,
			Link: sess.AuthorLink,
			Date: time.Now().Format("2006-01"),
		}
	}

	switch sess.Op {
	case store.OpAppendItem:
		err = doc.AppendSectionItem(sess.SubCourse, sess.SectionTitle, sess.NewParagraph, attr)
	case store.OpAppendReview:
		err = doc.AppendTeacherReview(sess.SubCourse, sess.TeacherName, sess.NewParagraph, attr)
	case store.OpModify, store.OpEditItem:
		if sess.Target == nil {
			s.sessions.Delete(key)
			return []string{"Internal session error; the session was closed. Start again with /pr start."}
		}
		err = doc.Replace(*sess.Target, sess.OldParagraph, sess.NewParagraph, attr)
	default:
		s.sessions.Delete(key)
		return []string{"Internal session error; the session was closed. Start again with /pr start."}
	}

	if err != nil {
		if errors.Is(err, document.ErrContentDrifted) || errors.Is(err, document.ErrNodeNotFound) {
			s.sessions.Delete(key)
			return []string{"The document changed while you were editing. The session was closed; start again."}
		}
		return []string{fmt.Sprintf("Could not build the change: %v", err)}
	}

	sess.PatchedTOML = doc.Print()
	sess.State = store.StateAwaitConfirmation
	s.sessions.Save(sess)

	var b strings.Builder
	b.WriteString("Review the change:\n")
	if sess.OldParagraph != "" {
		fmt.Fprintf(&b, "--- before ---\n%s\n", truncate(sess.OldParagraph, confirmPreviewMax))
	}
	fmt.Fprintf(&b, "--- after ---\n%s\n", truncate(document.NormalizeText(sess.NewParagraph), confirmPreviewMax))
	b.WriteString("Submit? (yes/no)")
	return []string{b.String()}
}

// --- confirmation, moderation, publication ---

func (s *prEntryService) onConfirmation(ctx context.Context, key string, sess *store.Session, text string) []string {
	switch {
	case isNo(text):
		s.sessions.Delete(key)
		return []string{"Discarded. The session was closed."}
	case isYes(text):
		return s.submit(ctx, key, sess)
	default:
		return []string{"Please answer yes or no."}
	}
}

func (s *prEntryService) submit(ctx context.Context, key string, sess *store.Session) []string {
	verdict, err := s.moderator.Review(ctx, sess.PatchedTOML)
	if err != nil {
		s.logger.Error("PREntryService", "moderation call failed", map[string]interface{}{"key": key, "error": err.Error()})
		return []string{fmt.Sprintf("Moderation is unavailable: %v. Reply yes to retry or no to discard.", err)}
	}
	if !verdict.Approved {
		// a rejection is terminal: resubmitting the same content must not work
		s.sessions.Delete(key)
		return []string{fmt.Sprintf("The change was rejected by moderation: %s. The session was closed.", verdict.Reason)}
	}

	res, err := s.lookup.EnsurePR(ctx, &prserver.EnsureRequest{
		RepoName:   sess.RepoName,
		CourseCode: sess.CourseCode,
		CourseName: sess.CourseName,
		RepoType:   sess.RepoType,
		TOML:       sess.PatchedTOML,
	})
	if err != nil {
		s.logger.Error("PREntryService", "publication failed", map[string]interface{}{"key": key, "error": err.Error()})
		return []string{fmt.Sprintf("Publication failed: %v. Reply yes to retry or no to discard.", err)}
	}

	s.publishCompleted(sess, res)

	reply := ""
	if res.PRURL != "" {
		reply = fmt.Sprintf("Done. Pull request: %s", res.PRURL)
	} else {
		reply = fmt.Sprintf("Done. The repository does not exist yet; request %s is pending.", res.RequestID)
	}
	s.sessions.Delete(key)
	return []string{reply}
}

func (s *prEntryService) publishCompleted(sess *store.Session, res *prserver.EnsureResult) {
	if s.pubSub == nil {
		return
	}
	payload := dto.SubmissionCompletedMessage{
		SubmissionID:   uuid.New(),
		ConversationID: sess.ConversationID,
		UserID:         sess.UserID,
		CourseCode:     sess.CourseCode,
		Operation:      string(sess.Op),
		PRURL:          res.PRURL,
		RequestID:      res.RequestID,
		TOML:           sess.PatchedTOML,
	}
	if sess.WantAttribution {
		payload.Attribution = map[string]interface{}{
			"name": sess.AuthorName,
			"link": sess.AuthorLink,
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.pubSub.Publish(s.topicName, message.NewMessage(watermill.NewUUID(), raw)); err != nil {
		s.logger.Warn("PREntryService", "failed to publish completion event", map[string]interface{}{"error": err.Error()})
	}
}

// --- full document paste ---

func (s *prEntryService) stageFullDocument(key string, sess *store.Session, text string) []string {
	normalized := document.NormalizeText(text)
	doc, err := document.Parse(normalized)
	if err != nil {
		return []string{fmt.Sprintf("That looks like a document but it does not parse: %v", err)}
	}
	if doc.CourseCode() == "" {
		return []string{"The document is missing course_code."}
	}

	sess.Op = store.OpFullDocument
	sess.PatchedTOML = doc.Print()
	sess.NewParagraph = normalized
	sess.State = store.StateAwaitConfirmation
	s.sessions.Save(sess)

	return []string{fmt.Sprintf("Replace the whole document for %s? (yes/no)", sess.CourseCode)}
}

// --- rendering helpers ---

// renderDocument formats the document as titled segments and splits each one
// into transport-sized chunks.
func renderDocument(doc *document.Document) []string {
	var segments []string

	var head strings.Builder
	fmt.Fprintf(&head, "%s (%s)\n", doc.CourseName(), doc.CourseCode())
	if d := document.NormalizeText(doc.Description()); d != "" {
		head.WriteString(d)
	}
	segments = append(segments, strings.TrimRight(head.String(), "\n"))

	segments = append(segments, renderSections(doc.Sections)...)
	segments = append(segments, renderTeachers(doc.Teachers)...)
	for _, c := range doc.SubCourses {
		label := c.Name()
		segments = append(segments, fmt.Sprintf("## %s (%s)", label, c.Code()))
		segments = append(segments, renderSections(c.Sections)...)
		segments = append(segments, renderTeachers(c.Teachers)...)
	}

	var out []string
	for _, seg := range segments {
		out = append(out, splitReply(seg, replyChunkMax)...)
	}
	return out
}

func renderSections(sections []*document.Section) []string {
	var out []string
	for _, sec := range sections {
		var b strings.Builder
		fmt.Fprintf(&b, "### %s\n", sec.Title())
		for i, it := range sec.Items {
			fmt.Fprintf(&b, "%d. %s\n", i+1, document.NormalizeText(it.Content()))
		}
		out = append(out, strings.TrimRight(b.String(), "\n"))
	}
	return out
}

func renderTeachers(teachers []*document.Teacher) []string {
	var out []string
	for _, t := range teachers {
		var b strings.Builder
		fmt.Fprintf(&b, "### %s\n", t.Name())
		for i, r := range t.Reviews {
			fmt.Fprintf(&b, "%d. %s\n", i+1, document.NormalizeText(r.Content()))
		}
		out = append(out, strings.TrimRight(b.String(), "\n"))
	}
	return out
}

func renderStructure(sum *prserver.StructureSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s)\n", sum.Meta.CourseName, sum.Meta.CourseCode, sum.Meta.RepoType)
	for _, sec := range sum.Sections {
		fmt.Fprintf(&b, "- %s\n", sec.Label)
		for _, it := range sec.Items {
			fmt.Fprintf(&b, "  %d. %s\n", it.Index+1, it.Preview)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// splitReply breaks long text into chunks no longer than max bytes, preferring
// blank-line boundaries, then newlines, then a hard cut on a rune boundary.
func splitReply(text string, max int) []string {
	var out []string
	for len(text) > max {
		window := text[:max]
		cut := strings.LastIndex(window, "\n\n")
		if cut < max/4 {
			cut = strings.LastIndex(window, "\n")
		}
		if cut < max/4 {
			cut = max
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		out = append(out, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// splitTarget separates an optional "<course>::" prefix from a container name.
func splitTarget(s string) (course, name string) {
	if i := strings.Index(s, "::"); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+2:])
	}
	return "", strings.TrimSpace(s)
}

func findSectionIn(doc *document.Document, course, title string) *document.Section {
	sections := doc.Sections
	if course != "" {
		for _, c := range doc.SubCourses {
			if c.Name() == course {
				sections = c.Sections
			}
		}
	}
	for _, sec := range sections {
		if sec.Title() == title {
			return sec
		}
	}
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "ok", "confirm", "submit":
		return true
	}
	return false
}

func isNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "no", "discard", "abort":
		return true
	}
	return false
}

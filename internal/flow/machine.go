package flow

import (
	"fmt"
	"time"

	"github.com/bowerhall/albumbot/internal/broadcast"
	"github.com/bowerhall/albumbot/internal/logger"
	"github.com/bowerhall/albumbot/internal/media"
	"github.com/bowerhall/albumbot/internal/messages"
	"github.com/bowerhall/albumbot/internal/registry"
	"github.com/bowerhall/albumbot/internal/session"
	"github.com/bowerhall/albumbot/internal/stats"
)

func New(store *session.Store, reg Registry, transport Transport, msgs messages.Messages, adminID int64, window time.Duration) *Machine {
	return &Machine{
		sessions:  store,
		registry:  reg,
		transport: transport,
		msgs:      msgs,
		adminID:   adminID,
		window:    window,
		newTimer:  nil,
		now:       time.Now,
		snapshot:  stats.Collect,
	}
}

// SetArchiver enables best-effort album archival after a send.
func (m *Machine) SetArchiver(a Archiver) {
	m.archiver = a
}

// SetTimerSource replaces the aggregator timer source (tests).
func (m *Machine) SetTimerSource(nt media.NewTimer) {
	m.newTimer = nt
}

// SetClock replaces the wall clock used for album captions (tests).
func (m *Machine) SetClock(now func() time.Time) {
	m.now = now
}

// Sessions exposes the session store for the expiry sweep.
func (m *Machine) Sessions() *session.Store {
	return m.sessions
}

// HandleEvent processes one inbound event. Events for the same user
// are serialized through the session's handling lock; the transport
// may call this from as many goroutines as it likes.
func (m *Machine) HandleEvent(ev Event) {
	sess := m.sessions.Get(ev.UserID)
	sess.Acquire()
	defer sess.Release()

	sess.Touch()

	switch ev.Kind {
	case EventCommand:
		m.handleCommand(sess, ev)
	case EventText:
		m.handleText(sess, ev)
	case EventPhoto:
		m.handlePhoto(sess, ev)
	case EventCallback:
		m.handleCallback(sess, ev)
	default:
		logger.Warn("unknown event kind", "kind", ev.Kind, "userID", ev.UserID)
	}
}

func (m *Machine) handleCommand(sess *session.Session, ev Event) {
	switch ev.Command {
	case "start":
		m.ensureRegistered(ev)
		sess.Reset()
		sess.State = session.CollectingPhotos

		m.send(ev.UserID, m.msgs.Greeting)
		m.sendMenu(ev.UserID)
	default:
		m.send(ev.UserID, m.msgs.ChooseAction)
	}
}

func (m *Machine) handleText(sess *session.Session, ev Event) {
	// menu buttons arrive as plain text and work from any state
	switch ev.Text {
	case m.msgs.ButtonBegin:
		sess.Reset()
		sess.State = session.CollectingPhotos
		m.send(ev.UserID, m.msgs.SendPhoto)
		return
	case m.msgs.ButtonHelp:
		m.send(ev.UserID, m.msgs.Help)
		return
	case m.msgs.ButtonBroadcast:
		if ev.UserID != m.adminID {
			m.send(ev.UserID, m.msgs.AdminOnly)
			return
		}
		sess.Reset()
		sess.State = session.AwaitingBroadcastText
		m.send(ev.UserID, m.msgs.EnterBroadcast)
		return
	case m.msgs.ButtonBotInfo:
		if ev.UserID != m.adminID {
			m.send(ev.UserID, m.msgs.AdminOnly)
			return
		}
		m.sendBotInfo(ev.UserID)
		return
	}

	switch sess.State {
	case session.CollectingPhotos:
		m.send(ev.UserID, m.msgs.NotAPhoto)

	case session.AwaitingText:
		// last write wins; the user can keep editing until they send
		sess.Caption = ev.Text
		m.deletePrompt(sess, ev.UserID)

		text := fmt.Sprintf(m.msgs.TextSaved, sess.Caption, len(sess.Photos))
		m.sendChoice(sess, ev.UserID, text, m.msgs.ButtonChangeText)

	case session.AwaitingBroadcastText:
		m.runBroadcast(sess, ev)

	default:
		m.send(ev.UserID, m.msgs.ChooseAction)
		m.sendMenu(ev.UserID)
	}
}

func (m *Machine) handlePhoto(sess *session.Session, ev Event) {
	if sess.State != session.CollectingPhotos {
		m.send(ev.UserID, m.msgs.ChooseAction)
		m.sendMenu(ev.UserID)
		return
	}

	if sess.Groups == nil {
		userID := ev.UserID
		settle := func(id media.GroupID, refs []media.Ref) {
			m.handleSettled(userID, refs)
		}
		if m.newTimer != nil {
			sess.Groups = media.NewAggregatorWithTimer(m.window, settle, m.newTimer)
		} else {
			sess.Groups = media.NewAggregator(m.window, settle)
		}
	}

	batch, ok := sess.Groups.Submit(ev.GroupID, ev.Photo)
	if !ok {
		// group still buffering; the quiescence timer will settle it
		return
	}

	m.appendSettled(sess, ev.UserID, batch, false)
}

// handleSettled runs on a quiescence timer goroutine; it re-enters the
// session lock so it is serialized against the user's other events.
func (m *Machine) handleSettled(userID int64, refs []media.Ref) {
	sess := m.sessions.Get(userID)
	sess.Acquire()
	defer sess.Release()

	if sess.State != session.CollectingPhotos {
		// session was reset while the group was buffering
		logger.Debug("settled group dropped", "userID", userID, "refs", len(refs))
		return
	}

	sess.Touch()

	// a freshly settled group warrants a fresh prompt
	sess.PromptSent = false

	m.appendSettled(sess, userID, refs, true)
}

func (m *Machine) appendSettled(sess *session.Session, userID int64, refs []media.Ref, grouped bool) {
	sess.Photos = append(sess.Photos, refs...)

	logger.Info("photos settled",
		"userID", userID,
		"added", len(refs),
		"total", len(sess.Photos),
		"grouped", grouped)

	if sess.PromptSent {
		return
	}

	text := fmt.Sprintf(m.msgs.PhotoAdded, len(sess.Photos))
	m.sendChoice(sess, userID, text, m.msgs.ButtonWriteText)
	sess.PromptSent = true
}

func (m *Machine) handleCallback(sess *session.Session, ev Event) {
	if ev.PromptMsgID != 0 {
		sess.PromptMsgID = ev.PromptMsgID
	}

	switch ev.CallbackID {
	case CallbackSendAlbum:
		m.deletePrompt(sess, ev.UserID)
		m.sendAlbum(sess, ev)

	case CallbackWriteText:
		m.deletePrompt(sess, ev.UserID)
		sess.State = session.AwaitingText
		m.send(ev.UserID, m.msgs.EnterText)

	default:
		logger.Warn("unknown callback", "data", ev.CallbackID, "userID", ev.UserID)
	}
}

func (m *Machine) sendAlbum(sess *session.Session, ev Event) {
	// confirming with nothing collected still resets the session
	if len(sess.Photos) == 0 {
		sess.Reset()
		return
	}

	caption := m.buildCaption(ev.FullName, sess.Caption)

	if err := m.transport.SendAlbum(m.adminID, sess.Photos, caption); err != nil {
		logger.Error("album send failed", "userID", ev.UserID, "photos", len(sess.Photos), "error", err)
	} else {
		logger.Info("album sent", "userID", ev.UserID, "photos", len(sess.Photos))
		m.send(ev.UserID, m.msgs.AlbumSent)

		if m.archiver != nil {
			refs := make([]media.Ref, len(sess.Photos))
			copy(refs, sess.Photos)
			go m.archiver.Archive(ev.UserID, refs)
		}
	}

	sess.Reset()
}

// buildCaption renders the first-item caption: date, author, optional
// user text, each on its own block.
func (m *Machine) buildCaption(fullName, caption string) string {
	date := m.now().Format("2 January 2006")

	s := fmt.Sprintf("%s\n\n%s", date, fullName)
	if caption != "" {
		s += "\n" + caption
	}

	return s
}

func (m *Machine) runBroadcast(sess *session.Session, ev Event) {
	recipients, err := m.registry.ListAll()
	if err != nil {
		logger.Error("broadcast recipient list failed", "error", err)
		sess.Reset()
		return
	}

	text := fmt.Sprintf(m.msgs.BroadcastPrefix, ev.Text)
	report := broadcast.Dispatch(m.transport, text, recipients, m.adminID)

	m.send(ev.UserID, fmt.Sprintf(m.msgs.BroadcastDone, report.Delivered))
	sess.Reset()
}

func (m *Machine) sendBotInfo(userID int64) {
	count, err := m.registry.Count()
	if err != nil {
		logger.Error("registry count failed", "error", err)
	}

	snap := m.snapshot()
	info := fmt.Sprintf(m.msgs.BotInfo,
		count,
		snap.Uptime,
		stats.FormatBytes(snap.RSSBytes),
		snap.Goroutines)

	m.send(userID, info)
}

func (m *Machine) ensureRegistered(ev Event) {
	rec, err := m.registry.Get(ev.UserID)
	if err != nil {
		logger.Error("registry read failed", "userID", ev.UserID, "error", err)
		return
	}

	if rec != nil {
		return
	}

	err = m.registry.Put(registry.UserRecord{
		UserID:    ev.UserID,
		Username:  ev.Username,
		FullName:  ev.FullName,
		FirstSeen: m.now(),
	})
	if err != nil {
		// the user keeps working this session but may miss broadcasts
		logger.Error("registry write failed", "userID", ev.UserID, "error", err)
		return
	}

	logger.Info("user registered", "userID", ev.UserID, "username", ev.Username)
}

func (m *Machine) sendChoice(sess *session.Session, userID int64, text, secondLabel string) {
	buttons := []Button{
		{Label: m.msgs.ButtonSendNoText, CallbackID: CallbackSendAlbum},
		{Label: secondLabel, CallbackID: CallbackWriteText},
	}

	msgID, err := m.transport.SendWithButtons(userID, text, buttons)
	if err != nil {
		logger.Error("prompt send failed", "userID", userID, "error", err)
		return
	}

	sess.PromptMsgID = msgID
}

func (m *Machine) deletePrompt(sess *session.Session, userID int64) {
	if sess.PromptMsgID == 0 {
		return
	}

	if err := m.transport.DeleteMessage(userID, sess.PromptMsgID); err != nil {
		logger.Debug("prompt delete failed", "userID", userID, "error", err)
	}

	sess.PromptMsgID = 0
}

func (m *Machine) sendMenu(userID int64) {
	buttons := []string{m.msgs.ButtonBegin, m.msgs.ButtonHelp}
	if userID == m.adminID {
		buttons = append(buttons, m.msgs.ButtonBroadcast, m.msgs.ButtonBotInfo)
	}

	if err := m.transport.SendMenu(userID, m.msgs.ChooseAction, buttons); err != nil {
		logger.Error("menu send failed", "userID", userID, "error", err)
	}
}

func (m *Machine) send(userID int64, text string) {
	if err := m.transport.SendText(userID, text); err != nil {
		logger.Error("send failed", "userID", userID, "error", err)
	}
}

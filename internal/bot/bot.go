package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"class-planner/internal/model"
	"class-planner/internal/service"
)

const (
	cbCompletePrefix = "complete:"

	iconOpen = "🟢"
	iconDone = "✅"
)

// Bot is the Telegram command surface over the planner services. It doubles
// as the Notification Gateway's platform channel via Send.
type Bot struct {
	api         *tgbotapi.BotAPI
	chatID      int64
	scheduleSvc *service.ScheduleService
	attendance  *service.AttendanceService
	backupSvc   *service.BackupService
	shareSvc    *service.ShareService
	notifySvc   *service.NotificationService
	reminderSvc *service.ReminderService
	usageSvc    *service.UsageService
}

// New authorizes against the Telegram API. chatID is the single chat this
// planner serves; the store is scoped to one profile, so is the bot.
func New(token string, chatID int64,
	scheduleSvc *service.ScheduleService,
	attendance *service.AttendanceService,
	backupSvc *service.BackupService,
	shareSvc *service.ShareService,
	notifySvc *service.NotificationService,
	reminderSvc *service.ReminderService,
	usageSvc *service.UsageService,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:         api,
		chatID:      chatID,
		scheduleSvc: scheduleSvc,
		attendance:  attendance,
		backupSvc:   backupSvc,
		shareSvc:    shareSvc,
		notifySvc:   notifySvc,
		reminderSvc: reminderSvc,
		usageSvc:    usageSvc,
	}, nil
}

// Send implements service.Sender: platform-level alert delivery.
func (b *Bot) Send(ctx context.Context, title, message string) error {
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("<b>%s</b>\n%s",
		html.EscapeString(title), html.EscapeString(message)))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.ID != b.chatID {
		return
	}

	cmdCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	b.usageSvc.Track(cmdCtx, "command_"+msg.Command())

	switch msg.Command() {
	case "start", "help":
		b.reply(b.helpText())
	case "today":
		b.sendDaySchedule(cmdCtx, time.Now())
	case "week":
		b.sendWeekSchedule(cmdCtx)
	case "due":
		b.sendAssignments(cmdCtx)
	case "attendance":
		b.sendAttendance(cmdCtx, msg.CommandArguments())
	case "notifications":
		b.sendNotifications(cmdCtx)
	case "backup":
		b.sendBackup(cmdCtx)
	case "export":
		b.sendCalendarExport(cmdCtx)
	case "share":
		b.sendShareLink(cmdCtx, msg.CommandArguments())
	case "replan":
		b.sendReplan(cmdCtx)
	default:
		b.reply("Unknown command. Try /help.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			log.Printf("[warn] answer callback: %v", err)
		}
	}()

	if !strings.HasPrefix(cb.Data, cbCompletePrefix) {
		return
	}
	id := strings.TrimPrefix(cb.Data, cbCompletePrefix)

	cbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	assignment, err := b.scheduleSvc.SetAssignmentDone(cbCtx, id, true)
	if err != nil {
		log.Printf("[warn] complete assignment: %v", err)
		b.reply("Could not complete that assignment.")
		return
	}
	b.reply(fmt.Sprintf("%s %s marked as done.", iconDone, html.EscapeString(assignment.Title)))
}

func (b *Bot) sendDaySchedule(ctx context.Context, now time.Time) {
	day := model.Weekdays[int(now.Weekday())]
	slots, err := b.scheduleSvc.SlotsOn(ctx, day)
	if err != nil {
		b.replyErr(err)
		return
	}
	doc, err := b.scheduleSvc.Load(ctx)
	if err != nil {
		b.replyErr(err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 <b>%s</b>\n", day)
	if len(slots) == 0 {
		sb.WriteString("— no classes\n")
	}
	for _, slot := range slots {
		fmt.Fprintf(&sb, "%s–%s %s", slot.StartTime, slot.EndTime,
			html.EscapeString(doc.SubjectName(slot.SubjectID)))
		if subj, ok := doc.Subject(slot.SubjectID); ok && subj.Room != "" {
			fmt.Fprintf(&sb, " · %s", html.EscapeString(subj.Room))
		}
		sb.WriteByte('\n')
	}
	b.reply(sb.String())
}

func (b *Bot) sendWeekSchedule(ctx context.Context) {
	doc, err := b.scheduleSvc.Load(ctx)
	if err != nil {
		b.replyErr(err)
		return
	}

	var sb strings.Builder
	sb.WriteString("🗓 <b>Weekly timetable</b>\n")
	for _, day := range model.Weekdays {
		slots, err := b.scheduleSvc.SlotsOn(ctx, day)
		if err != nil {
			b.replyErr(err)
			return
		}
		if len(slots) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n<b>%s</b>\n", day)
		for _, slot := range slots {
			fmt.Fprintf(&sb, "%s–%s %s\n", slot.StartTime, slot.EndTime,
				html.EscapeString(doc.SubjectName(slot.SubjectID)))
		}
	}
	b.reply(sb.String())
}

func (b *Bot) sendAssignments(ctx context.Context) {
	assignments, err := b.scheduleSvc.ListAssignments(ctx)
	if err != nil {
		b.replyErr(err)
		return
	}
	doc, err := b.scheduleSvc.Load(ctx)
	if err != nil {
		b.replyErr(err)
		return
	}

	if len(assignments) == 0 {
		b.reply("📚 No assignments.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📚 <b>Assignments</b>\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, a := range assignments {
		icon := iconOpen
		if a.Completed {
			icon = iconDone
		}
		fmt.Fprintf(&sb, "%s %s · %s · due %s\n", icon,
			html.EscapeString(a.Title),
			html.EscapeString(doc.SubjectName(a.SubjectID)),
			a.DueDate)
		if !a.Completed {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Done: "+a.Title, cbCompletePrefix+a.ID),
			))
		}
	}

	msg := tgbotapi.NewMessage(b.chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeHTML
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("[warn] send assignments: %v", err)
	}
}

func (b *Bot) sendAttendance(ctx context.Context, args string) {
	doc, err := b.scheduleSvc.Load(ctx)
	if err != nil {
		b.replyErr(err)
		return
	}

	filter := strings.TrimSpace(args)
	var sb strings.Builder
	sb.WriteString("🧾 <b>Attendance</b>\n")
	matched := false
	for _, subj := range doc.Subjects {
		if filter != "" && !strings.EqualFold(subj.Name, filter) {
			continue
		}
		matched = true
		stats, err := b.attendance.Stats(ctx, subj.ID)
		if err != nil {
			b.replyErr(err)
			return
		}
		if stats.Total == 0 {
			fmt.Fprintf(&sb, "%s: no records\n", html.EscapeString(subj.Name))
			continue
		}
		fmt.Fprintf(&sb, "%s: %.1f%% (%d present, %d late, %d absent)\n",
			html.EscapeString(subj.Name), stats.Percent, stats.Present, stats.Late, stats.Absent)
	}
	if !matched {
		sb.WriteString("— no matching subjects\n")
	}
	b.reply(sb.String())
}

func (b *Bot) sendNotifications(ctx context.Context) {
	list, err := b.notifySvc.InApp(ctx)
	if err != nil {
		b.replyErr(err)
		return
	}
	if len(list) == 0 {
		b.reply("🔔 No in-app notifications.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🔔 <b>Notifications</b>\n")
	for _, n := range list {
		marker := "•"
		if !n.Read {
			marker = "🆕"
		}
		fmt.Fprintf(&sb, "%s %s — %s\n", marker,
			html.EscapeString(n.Title), html.EscapeString(n.Message))
	}
	b.reply(sb.String())

	if err := b.notifySvc.MarkAllRead(ctx); err != nil {
		log.Printf("[warn] mark notifications read: %v", err)
	}
}

func (b *Bot) sendBackup(ctx context.Context) {
	raw, err := b.backupSvc.Export(ctx)
	if err != nil {
		b.replyErr(err)
		return
	}
	name := fmt.Sprintf("class-schedule-backup-%s.json", time.Now().Format("2006-01-02"))
	doc := tgbotapi.NewDocument(b.chatID, tgbotapi.FileBytes{Name: name, Bytes: raw})
	if _, err := b.api.Send(doc); err != nil {
		log.Printf("[warn] send backup: %v", err)
	}
}

func (b *Bot) sendCalendarExport(ctx context.Context) {
	ics, err := b.scheduleSvc.ExportICS(ctx, time.Now())
	if err != nil {
		b.replyErr(err)
		return
	}
	doc := tgbotapi.NewDocument(b.chatID, tgbotapi.FileBytes{
		Name:  "class-schedule.ics",
		Bytes: []byte(ics),
	})
	if _, err := b.api.Send(doc); err != nil {
		log.Printf("[warn] send calendar export: %v", err)
	}
}

func (b *Bot) sendShareLink(ctx context.Context, args string) {
	title := strings.TrimSpace(args)
	if title == "" {
		title = "My Class Schedule"
	}
	id, err := b.shareSvc.Publish(ctx, title)
	if err != nil {
		b.replyErr(err)
		return
	}
	b.reply(fmt.Sprintf("🔗 Schedule shared. Share id: <code>%s</code>", html.EscapeString(id)))
}

func (b *Bot) sendReplan(ctx context.Context) {
	armed, err := b.reminderSvc.ScheduleAll(ctx)
	if err != nil {
		b.replyErr(err)
		return
	}
	b.reply(fmt.Sprintf("⏰ Re-planned reminders: %d armed.", armed))
}

func (b *Bot) reply(text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("[warn] send message: %v", err)
	}
}

func (b *Bot) replyErr(err error) {
	log.Printf("[warn] command failed: %v", err)
	b.reply("Something went wrong: " + html.EscapeString(err.Error()))
}

func (b *Bot) helpText() string {
	return strings.Join([]string{
		"📖 <b>Class Planner</b>",
		"/today — today's classes",
		"/week — weekly timetable",
		"/due — assignments with completion buttons",
		"/attendance [subject] — attendance stats",
		"/notifications — in-app notification list",
		"/backup — download a JSON backup",
		"/export — download the timetable as an .ics calendar",
		"/share [title] — publish a read-only schedule snapshot",
		"/replan — re-arm class and assignment reminders now",
	}, "\n")
}

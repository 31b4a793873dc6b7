package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"class-planner/internal/bot"
	"class-planner/internal/config"
	applog "class-planner/internal/log"
	"class-planner/internal/mirror"
	"class-planner/internal/service"
	"class-planner/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	var mc mirror.Client
	if cfg.MirrorURL != "" {
		mc = mirror.NewHTTP(cfg.MirrorURL, cfg.MirrorToken, cfg.MirrorTimeout)
	} else {
		applog.Info("no mirror configured, running local-only")
	}

	syncSvc := service.NewSyncService(st, mc, cfg.MirrorTimeout)
	scheduleSvc := service.NewScheduleService(syncSvc)
	attendanceSvc := service.NewAttendanceService(syncSvc, nil)
	backupSvc := service.NewBackupService(scheduleSvc, nil)
	shareSvc := service.NewShareService(scheduleSvc, st, mc, nil)
	sessionSvc := service.NewSessionService(st, nil)

	deviceID, err := sessionSvc.DeviceID(ctx)
	if err != nil {
		log.Fatalf("device id: %v", err)
	}
	applog.Info("planner starting", "device", deviceID)

	usageSvc := service.NewUsageService(mc, deviceID, nil)
	usageSvc.Track(ctx, "app_start")

	planner := service.NewPlanner(nil)
	notifySvc := service.NewNotificationService(nil, syncSvc, planner)
	reminderSvc := service.NewReminderService(scheduleSvc, notifySvc, cfg.ReminderLead, nil)

	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken, cfg.TelegramChatID,
			scheduleSvc, attendanceSvc, backupSvc, shareSvc, notifySvc, reminderSvc, usageSvc)
		if err != nil {
			log.Fatalf("bot: %v", err)
		}
		notifySvc.SetSender(telegramBot)
	}

	if notifySvc.RequestPermission(ctx) {
		if armed, err := reminderSvc.ScheduleAll(ctx); err != nil {
			log.Printf("reminders: %v", err)
		} else {
			applog.Info("reminders armed", "count", armed)
		}
	} else {
		applog.Info("notification permission absent, reminders degrade to in-app list")
	}

	scheduler := service.NewSchedulerService(loc)
	if _, err := scheduler.ScheduleDaily("00:00", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := reminderSvc.ScheduleAll(jobCtx); err != nil {
			log.Printf("daily re-plan: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule daily re-plan: %v", err)
	}
	if cfg.BadgePoll > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.BadgePoll, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			unread, err := notifySvc.UnreadCount(jobCtx)
			if err != nil {
				log.Printf("badge poll: %v", err)
				return
			}
			if unread > 0 {
				applog.Info("unread in-app notifications", "count", unread)
			}
		}); err != nil {
			log.Fatalf("schedule badge poll: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Class planner started.")
	if telegramBot != nil {
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("bot stopped with error: %v", err)
		}
	} else {
		<-ctx.Done()
	}

	syncSvc.Wait()
	log.Println("Shutdown complete.")
}

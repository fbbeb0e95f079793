// Package telegram is the chat front end: a webhook bot that renders the
// recipe, meal plan and shopping list views and triggers the same store
// operations as the CLI.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"pantry-planner/internal/app"
	"pantry-planner/internal/config"
	"pantry-planner/internal/importer"
	"pantry-planner/internal/metrics"
	"pantry-planner/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram bots may download files up to 20MB.
const maxDocumentSize = 20 << 20

// api is the part of tgbotapi.BotAPI the bot uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Importer imports recipes from a URL or an uploaded file.
type Importer interface {
	ImportURL(ctx context.Context, url string) (app.ImportReport, error)
	ImportBytes(ctx context.Context, name string, data []byte) (app.ImportReport, error)
}

// Bot wraps the Telegram API and the application core.
type Bot struct {
	api        api
	app        *app.App
	importer   Importer
	metrics    *metrics.Store
	cfg        *config.Config
	logger     *zap.Logger
	httpClient *http.Client
	now        func() time.Time
	wg         sync.WaitGroup
}

// NewBot initializes the Telegram API client and sets the webhook when a
// webhook URL is configured. metricsStore may be nil.
func NewBot(cfg *config.Config, application *app.App, imp Importer, metricsStore *metrics.Store, logger *zap.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized on telegram", zap.String("account", botAPI.Self.UserName))

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url: %w", err)
		}
		resp, err := botAPI.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		logger.Info("webhook set", zap.String("description", resp.Description))
	}

	return newBot(botAPI, cfg, application, imp, metricsStore, logger), nil
}

func newBot(botAPI api, cfg *config.Config, application *app.App, imp Importer, metricsStore *metrics.Store, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:        botAPI,
		app:        application,
		importer:   imp,
		metrics:    metricsStore,
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{Timeout: time.Minute},
		now:        time.Now,
	}
}

// ServeHTTP receives webhook updates. Telegram gets its answer immediately;
// the update is processed in the background.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	ctx := context.WithoutCancel(r.Context())
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.handleUpdate(ctx, update)
	}()
}

// Wait blocks until every in-flight update has been processed.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) allowed(user *tgbotapi.User) bool {
	if user == nil {
		return false
	}
	if slices.Contains(b.cfg.TelegramAllowedUserIDs, user.ID) {
		return true
	}
	b.logger.Warn("unauthorized access attempt", zap.Int64("user_id", user.ID), zap.String("username", user.UserName))
	return false
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if b.allowed(update.CallbackQuery.From) {
			b.handleCallbackQuery(ctx, update.CallbackQuery)
		}
	case update.Message != nil:
		if b.allowed(update.Message.From) {
			b.processMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.Document != nil {
		b.handleDocument(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleURL(ctx, chatID, text)
		return
	}

	if !msg.IsCommand() {
		b.reply(chatID, helpText, nil)
		return
	}

	args := strings.Fields(msg.CommandArguments())
	switch msg.Command() {
	case "recipes":
		b.reply(chatID, formatRecipes(b.app.BaseRecipes()), nil)
	case "plan":
		snap := b.app.Snapshot()
		b.reply(chatID, formatPlan(snap.MealPlan, snap.EatenLog), nil)
	case "generate":
		b.handleGenerate(ctx, chatID, args)
	case "eaten":
		b.handleEaten(ctx, chatID, args)
	case "shopping":
		list := b.app.Snapshot().ShoppingList
		b.reply(chatID, formatShoppingList(list), shoppingKeyboard(list))
	case "add":
		b.handleAddItem(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))
	case "clearlist":
		b.app.ClearShoppingList(ctx)
		b.reply(chatID, "🧹 Shopping list cleared.", nil)
	case "settings":
		b.reply(chatID, formatSettings(b.app.Settings()), nil)
	case "metrics":
		b.handleMetrics(ctx, msg)
	default:
		b.reply(chatID, helpText, nil)
	}
}

func (b *Bot) handleGenerate(ctx context.Context, chatID int64, args []string) {
	start := b.now()
	if len(args) > 0 {
		t, err := planner.ParseDate(args[0])
		if err != nil {
			b.reply(chatID, formatError("generating plan", err), nil)
			return
		}
		start = t
	}

	status := b.reply(chatID, "🧑‍🍳 *Thinking...*\n(Choosing recipes and building your plan)", nil)

	result, err := b.app.GeneratePlan(ctx, start)
	if err != nil {
		b.logger.Error("error generating plan", zap.Error(err))
		b.edit(chatID, status, formatError("generating plan", err), nil)
		return
	}

	b.edit(chatID, status, formatPlan(result.Plan, b.app.Snapshot().EatenLog), nil)
	if result.ShoppingListErr != nil {
		b.reply(chatID, formatError("building the shopping list", result.ShoppingListErr), nil)
		return
	}
	b.reply(chatID, formatShoppingList(result.ShoppingList), shoppingKeyboard(result.ShoppingList))
}

func (b *Bot) handleEaten(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		b.reply(chatID, "Usage: /eaten YYYY-MM-DD breakfast|lunch|dinner|snack [undo]", nil)
		return
	}
	meal, err := planner.ParseMealType(args[1])
	if err != nil {
		b.reply(chatID, formatError("marking meal", err), nil)
		return
	}
	eaten := len(args) < 3 || args[2] != "undo"

	if err := b.app.MarkEaten(ctx, args[0], meal, eaten); err != nil {
		b.reply(chatID, formatError("marking meal", err), nil)
		return
	}
	if eaten {
		b.reply(chatID, fmt.Sprintf("✅ %s on %s marked as eaten.", meal, args[0]), nil)
	} else {
		b.reply(chatID, fmt.Sprintf("↩️ %s on %s marked as not eaten.", meal, args[0]), nil)
	}
}

func (b *Bot) handleAddItem(ctx context.Context, chatID int64, name string) {
	if name == "" {
		b.reply(chatID, "Usage: /add item", nil)
		return
	}
	item, err := b.app.AddItem(ctx, name)
	if err != nil {
		b.reply(chatID, formatError("adding item", err), nil)
		return
	}
	b.reply(chatID, fmt.Sprintf("➕ Added %s.", esc(item.Name)), nil)
}

func (b *Bot) handleURL(ctx context.Context, chatID int64, url string) {
	status := b.reply(chatID, "✂️ *Clipping recipe...*\n(Extracting and saving to your library)", nil)

	report, err := b.importer.ImportURL(ctx, url)
	if err != nil {
		b.logger.Error("error importing url", zap.String("url", url), zap.Error(err))
		b.edit(chatID, status, formatError("importing recipe", err), nil)
		return
	}
	b.edit(chatID, status, formatImportReport(report), nil)
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	doc := msg.Document

	if !importer.Supported(doc.FileName) {
		b.reply(chatID, "⚠️ I can import PDF, text, Markdown and HTML files.", nil)
		return
	}
	if doc.FileSize > maxDocumentSize {
		b.reply(chatID, "⚠️ That file is too large to import.", nil)
		return
	}

	status := b.reply(chatID, "📄 *Reading your file...*", nil)

	data, err := b.download(ctx, doc.FileID)
	if err == nil {
		var report app.ImportReport
		if report, err = b.importer.ImportBytes(ctx, doc.FileName, data); err == nil {
			b.edit(chatID, status, formatImportReport(report), nil)
			return
		}
	}
	b.logger.Error("error importing document", zap.String("file", doc.FileName), zap.Error(err))
	b.edit(chatID, status, formatError("importing file", err), nil)
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	defer b.answerCallback(query.ID)

	action, itemID, ok := strings.Cut(query.Data, "|")
	if !ok || action != toggleAction || query.Message == nil {
		return
	}

	chatID := query.Message.Chat.ID
	if err := b.app.ToggleItem(ctx, itemID); err != nil {
		b.reply(chatID, formatError("updating list", err), nil)
		return
	}

	list := b.app.Snapshot().ShoppingList
	b.edit(chatID, query.Message.MessageID, formatShoppingList(list), shoppingKeyboard(list))
}

func (b *Bot) handleMetrics(ctx context.Context, msg *tgbotapi.Message) {
	if b.cfg.AdminTelegramID == 0 || msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.", nil)
		return
	}
	if b.metrics == nil {
		b.reply(msg.Chat.ID, "📊 Metrics are not enabled.", nil)
		return
	}

	usage, err := b.metrics.GetDailyUsage(ctx, 7)
	if err != nil {
		b.logger.Error("error fetching metrics", zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Error fetching metrics.", nil)
		return
	}
	b.reply(msg.Chat.ID, formatMetrics(usage, metrics.GetSysHealth(b.cfg.DatabasePath)), nil)
}

// reply sends a Markdown message and returns its id, or 0 when sending failed.
func (b *Bot) reply(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
		return 0
	}
	return sent.MessageID
}

func (b *Bot) answerCallback(id string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, "")); err != nil {
		b.logger.Warn("failed to answer callback query", zap.String("callback_id", id), zap.Error(err))
	}
}

// edit replaces the text of a status message, or sends a new one when the
// status message never went out.
func (b *Bot) edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if messageID == 0 {
		b.reply(chatID, text, markup)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = markup
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

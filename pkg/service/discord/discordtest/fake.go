// Package discordtest provides an in-memory implementation of discord.Service
// for tests.
package discordtest

import (
	"context"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/homedocks/homedocks-bot/pkg/service/discord"
	"github.com/m-mizutani/goerr/v2"
)

// Method names used for call counting and failure injection
const (
	MethodGetMessage        = "GetMessage"
	MethodSendMessage       = "SendMessage"
	MethodEditMessage       = "EditMessage"
	MethodHistory           = "History"
	MethodRecentMessages    = "RecentMessages"
	MethodAddReaction       = "AddReaction"
	MethodRemoveReaction    = "RemoveReaction"
	MethodHasReacted        = "HasReacted"
	MethodGetChannel        = "GetChannel"
	MethodCreateChannel     = "CreateChannel"
	MethodDeleteChannel     = "DeleteChannel"
	MethodGetMember         = "GetMember"
	MethodGetUser           = "GetUser"
	MethodAddRole           = "AddRole"
	MethodRemoveRole        = "RemoveRole"
	MethodSendDirectMessage = "SendDirectMessage"
	MethodDeferInteraction  = "DeferInteraction"
	MethodRespondEphemeral  = "RespondEphemeral"
	MethodFollowup          = "Followup"
)

// NotFound returns an error classified as a stale reference
func NotFound() error {
	return goerr.Wrap(discord.ErrNotFound, "fake: unknown resource")
}

// Forbidden returns an error classified as a permission failure
func Forbidden() error {
	return goerr.Wrap(discord.ErrForbidden, "fake: missing permissions")
}

// TooLarge returns an error classified as a size limit failure
func TooLarge() error {
	return goerr.Wrap(discord.ErrTooLarge, "fake: request entity too large")
}

// File is an attachment captured from a sent message
type File struct {
	Name    string
	Content string
}

// Fake is an in-memory Discord guild
type Fake struct {
	mu sync.Mutex

	BotUser *discordgo.User
	GuildID string
	Now     func() time.Time

	// FailFn injects failures. It is called with the method name and the
	// primary target id (channel, message or user) before every call.
	FailFn func(method, target string) error

	nextID    uint64
	channels  map[string]*discordgo.Channel
	messages  map[string][]*discordgo.Message
	files     map[string][]File
	reactions map[string]map[string][]string
	members   map[string]*discordgo.Member
	users     map[string]*discordgo.User
	dmClosed  map[string]bool
	dms       map[string][]*discordgo.MessageSend
	replies   map[string][]string
	deferred  map[string]bool
	calls     map[string]int
}

var _ discord.Service = &Fake{}

// New returns a fake guild with a connected bot user
func New() *Fake {
	f := &Fake{
		BotUser:   &discordgo.User{ID: "900000000000000001", Username: "homedocks-bot", Bot: true},
		GuildID:   "800000000000000001",
		Now:       time.Now,
		nextID:    1000,
		channels:  make(map[string]*discordgo.Channel),
		messages:  make(map[string][]*discordgo.Message),
		files:     make(map[string][]File),
		reactions: make(map[string]map[string][]string),
		members:   make(map[string]*discordgo.Member),
		users:     make(map[string]*discordgo.User),
		dmClosed:  make(map[string]bool),
		dms:       make(map[string][]*discordgo.MessageSend),
		replies:   make(map[string][]string),
		deferred:  make(map[string]bool),
		calls:     make(map[string]int),
	}
	f.users[f.BotUser.ID] = f.BotUser
	return f
}

func (f *Fake) newID() string {
	f.nextID++
	return strconv.FormatUint(f.nextID, 10)
}

// begin counts the call and returns an injected failure, if any. Callers
// must hold f.mu.
func (f *Fake) begin(method, target string) error {
	f.calls[method]++
	if f.FailFn != nil {
		return f.FailFn(method, target)
	}
	return nil
}

// Calls returns how many times method was invoked
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// AddChannel registers a text channel
func (f *Fake) AddChannel(id, name string) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := &discordgo.Channel{ID: id, Name: name, GuildID: f.GuildID, Type: discordgo.ChannelTypeGuildText}
	f.channels[id] = ch
	return ch
}

// AddMember registers a guild member
func (f *Fake) AddMember(user *discordgo.User, roles ...string) *discordgo.Member {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &discordgo.Member{GuildID: f.GuildID, User: user, Roles: slices.Clone(roles)}
	f.members[user.ID] = m
	f.users[user.ID] = user
	return m
}

// CloseDMs makes direct messages to userID fail with a permission error
func (f *Fake) CloseDMs(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dmClosed[userID] = true
}

// Post appends a message authored by user, as if sent from the client
func (f *Fake) Post(channelID string, author *discordgo.User, content string, attachments ...string) *discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := &discordgo.Message{
		ID:        f.newID(),
		ChannelID: channelID,
		Content:   content,
		Author:    author,
		Timestamp: f.Now(),
	}
	for _, url := range attachments {
		msg.Attachments = append(msg.Attachments, &discordgo.MessageAttachment{URL: url})
	}
	f.messages[channelID] = append(f.messages[channelID], msg)
	return f.snapshot(msg)
}

// React adds userID's reaction as if clicked in the client
func (f *Fake) React(messageID, emoji, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addReaction(messageID, emoji, userID)
}

func (f *Fake) addReaction(messageID, emoji, userID string) {
	byEmoji, ok := f.reactions[messageID]
	if !ok {
		byEmoji = make(map[string][]string)
		f.reactions[messageID] = byEmoji
	}
	if !slices.Contains(byEmoji[emoji], userID) {
		byEmoji[emoji] = append(byEmoji[emoji], userID)
	}
}

// Reactors returns the users reacting with emoji on messageID
func (f *Fake) Reactors(messageID, emoji string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.reactions[messageID][emoji])
}

// Messages returns copies of the messages of a channel, oldest first
func (f *Fake) Messages(channelID string) []*discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]*discordgo.Message, 0, len(f.messages[channelID]))
	for _, m := range f.messages[channelID] {
		result = append(result, f.snapshot(m))
	}
	return result
}

// Files returns the attachments sent with a message
func (f *Fake) Files(messageID string) []File {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.files[messageID])
}

// Channel returns a registered channel or nil
func (f *Fake) Channel(id string) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels[id]
}

// ChannelByName returns the first channel with the given name or nil
func (f *Fake) ChannelByName(name string) *discordgo.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.channels {
		if ch.Name == name {
			return ch
		}
	}
	return nil
}

// Roles returns the current roles of a member
func (f *Fake) Roles(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.members[userID]; ok {
		return slices.Clone(m.Roles)
	}
	return nil
}

// DirectMessages returns the DMs delivered to userID
func (f *Fake) DirectMessages(userID string) []*discordgo.MessageSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.dms[userID])
}

// Replies returns the ephemeral responses and follow-ups of an interaction
func (f *Fake) Replies(interactionID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.replies[interactionID])
}

// Deferred reports whether the interaction was acknowledged with a deferral
func (f *Fake) Deferred(interactionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deferred[interactionID]
}

// DeleteMessage removes a message as if deleted by a moderator
func (f *Fake) DeleteMessage(channelID, messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[channelID] = slices.DeleteFunc(f.messages[channelID], func(m *discordgo.Message) bool {
		return m.ID == messageID
	})
}

func (f *Fake) findMessage(channelID, messageID string) *discordgo.Message {
	for _, m := range f.messages[channelID] {
		if m.ID == messageID {
			return m
		}
	}
	return nil
}

func (f *Fake) snapshot(m *discordgo.Message) *discordgo.Message {
	cp := *m
	cp.Embeds = slices.Clone(m.Embeds)
	cp.Components = slices.Clone(m.Components)
	cp.Reactions = nil
	for emoji, users := range f.reactions[m.ID] {
		if len(users) == 0 {
			continue
		}
		cp.Reactions = append(cp.Reactions, &discordgo.MessageReactions{
			Count: len(users),
			Me:    slices.Contains(users, f.BotUser.ID),
			Emoji: &discordgo.Emoji{Name: emoji},
		})
	}
	return &cp
}

func (f *Fake) BotUserID() string {
	return f.BotUser.ID
}

func (f *Fake) GetMessage(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodGetMessage, messageID); err != nil {
		return nil, err
	}
	m := f.findMessage(channelID, messageID)
	if m == nil {
		return nil, NotFound()
	}
	return f.snapshot(m), nil
}

func (f *Fake) SendMessage(ctx context.Context, channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodSendMessage, channelID); err != nil {
		return nil, err
	}
	if _, ok := f.channels[channelID]; !ok {
		return nil, NotFound()
	}

	msg := &discordgo.Message{
		ID:         f.newID(),
		ChannelID:  channelID,
		Content:    data.Content,
		Embeds:     slices.Clone(data.Embeds),
		Components: slices.Clone(data.Components),
		Author:     f.BotUser,
		Timestamp:  f.Now(),
	}
	f.messages[channelID] = append(f.messages[channelID], msg)
	f.files[msg.ID] = readFiles(data.Files)
	return f.snapshot(msg), nil
}

func readFiles(files []*discordgo.File) []File {
	var result []File
	for _, file := range files {
		var content []byte
		if file.Reader != nil {
			content, _ = io.ReadAll(file.Reader)
		}
		result = append(result, File{Name: file.Name, Content: string(content)})
	}
	return result
}

func (f *Fake) EditMessage(ctx context.Context, edit *discordgo.MessageEdit) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodEditMessage, edit.ID); err != nil {
		return nil, err
	}
	m := f.findMessage(edit.Channel, edit.ID)
	if m == nil {
		return nil, NotFound()
	}
	if edit.Content != nil {
		m.Content = *edit.Content
	}
	if edit.Embeds != nil {
		m.Embeds = slices.Clone(*edit.Embeds)
	}
	if edit.Components != nil {
		m.Components = slices.Clone(*edit.Components)
	}
	return f.snapshot(m), nil
}

func (f *Fake) History(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodHistory, channelID); err != nil {
		return nil, err
	}
	if _, ok := f.channels[channelID]; !ok {
		return nil, NotFound()
	}

	var result []*discordgo.Message
	for _, m := range f.messages[channelID] {
		if len(result) >= limit {
			break
		}
		result = append(result, f.snapshot(m))
	}
	return result, nil
}

func (f *Fake) RecentMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodRecentMessages, channelID); err != nil {
		return nil, err
	}
	if _, ok := f.channels[channelID]; !ok {
		return nil, NotFound()
	}

	msgs := f.messages[channelID]
	var result []*discordgo.Message
	for i := len(msgs) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, f.snapshot(msgs[i]))
	}
	return result, nil
}

func (f *Fake) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodAddReaction, messageID); err != nil {
		return err
	}
	if f.findMessage(channelID, messageID) == nil {
		return NotFound()
	}
	f.addReaction(messageID, emoji, f.BotUser.ID)
	return nil
}

func (f *Fake) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodRemoveReaction, messageID); err != nil {
		return err
	}
	if f.findMessage(channelID, messageID) == nil {
		return NotFound()
	}
	if byEmoji, ok := f.reactions[messageID]; ok {
		byEmoji[emoji] = slices.DeleteFunc(byEmoji[emoji], func(id string) bool { return id == userID })
	}
	return nil
}

func (f *Fake) HasReacted(ctx context.Context, channelID, messageID, emoji, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodHasReacted, messageID); err != nil {
		return false, err
	}
	if f.findMessage(channelID, messageID) == nil {
		return false, NotFound()
	}
	return slices.Contains(f.reactions[messageID][emoji], userID), nil
}

func (f *Fake) GetChannel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodGetChannel, channelID); err != nil {
		return nil, err
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, NotFound()
	}
	cp := *ch
	return &cp, nil
}

func (f *Fake) CreateChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodCreateChannel, data.Name); err != nil {
		return nil, err
	}
	ch := &discordgo.Channel{
		ID:                   f.newID(),
		GuildID:              guildID,
		Name:                 data.Name,
		Topic:                data.Topic,
		Type:                 data.Type,
		ParentID:             data.ParentID,
		PermissionOverwrites: slices.Clone(data.PermissionOverwrites),
	}
	f.channels[ch.ID] = ch
	cp := *ch
	return &cp, nil
}

func (f *Fake) DeleteChannel(ctx context.Context, channelID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodDeleteChannel, channelID); err != nil {
		return err
	}
	if _, ok := f.channels[channelID]; !ok {
		return NotFound()
	}
	delete(f.channels, channelID)
	delete(f.messages, channelID)
	return nil
}

func (f *Fake) GetMember(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodGetMember, userID); err != nil {
		return nil, err
	}
	m, ok := f.members[userID]
	if !ok {
		return nil, NotFound()
	}
	cp := *m
	cp.Roles = slices.Clone(m.Roles)
	return &cp, nil
}

func (f *Fake) GetUser(ctx context.Context, userID string) (*discordgo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodGetUser, userID); err != nil {
		return nil, err
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, NotFound()
	}
	return u, nil
}

func (f *Fake) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodAddRole, userID); err != nil {
		return err
	}
	m, ok := f.members[userID]
	if !ok {
		return NotFound()
	}
	if !slices.Contains(m.Roles, roleID) {
		m.Roles = append(m.Roles, roleID)
	}
	return nil
}

func (f *Fake) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodRemoveRole, userID); err != nil {
		return err
	}
	m, ok := f.members[userID]
	if !ok {
		return NotFound()
	}
	m.Roles = slices.DeleteFunc(m.Roles, func(id string) bool { return id == roleID })
	return nil
}

func (f *Fake) SendDirectMessage(ctx context.Context, userID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodSendDirectMessage, userID); err != nil {
		return nil, err
	}
	if _, ok := f.users[userID]; !ok {
		return nil, NotFound()
	}
	if f.dmClosed[userID] {
		return nil, Forbidden()
	}
	f.dms[userID] = append(f.dms[userID], data)
	return &discordgo.Message{ID: f.newID(), Content: data.Content}, nil
}

func (f *Fake) DeferInteraction(ctx context.Context, i *discordgo.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodDeferInteraction, i.ID); err != nil {
		return err
	}
	f.deferred[i.ID] = true
	return nil
}

func (f *Fake) RespondEphemeral(ctx context.Context, i *discordgo.Interaction, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodRespondEphemeral, i.ID); err != nil {
		return err
	}
	f.replies[i.ID] = append(f.replies[i.ID], content)
	return nil
}

func (f *Fake) Followup(ctx context.Context, i *discordgo.Interaction, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(MethodFollowup, i.ID); err != nil {
		return err
	}
	f.replies[i.ID] = append(f.replies[i.ID], content)
	return nil
}

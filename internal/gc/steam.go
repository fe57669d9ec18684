package gc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paralin/go-dota2"
	devents "github.com/paralin/go-dota2/events"
	"github.com/paralin/go-dota2/protocol"
	"github.com/paralin/go-steam"
	"github.com/paralin/go-steam/protocol/gamecoordinator"
	"github.com/paralin/go-steam/protocol/steamlang"
	"github.com/sirupsen/logrus"

	"inhouse-lobby-bot/internal/domain"
)

const (
	dotaAppID         = 570
	eventBufferSize   = 64
	overflowLimit     = 256
	helloDelay        = 1 * time.Second
	rehelloDelay      = 2 * time.Second
	keepaliveInterval = 55 * time.Second
)

// SteamClient implements Client on top of go-steam and go-dota2. Library
// callbacks and raw GC packets are translated into Events on one channel.
type SteamClient struct {
	logger logrus.FieldLogger
	client *steam.Client
	events chan Event
	done   chan struct{}

	pumpOnce  sync.Once
	closeOnce sync.Once

	// overflow queues GC events that found events full, oldest first.
	// Consecutive lobby snapshots collapse into the latest one.
	queueMu  sync.Mutex
	overflow []Event
	flushing bool

	mu               sync.Mutex
	dota             *dota2.Dota2
	chatChannelID    uint64
	keepaliveRunning bool
}

// NewSteamClient creates an unconnected client.
func NewSteamClient(logger logrus.FieldLogger) *SteamClient {
	return &SteamClient{
		logger: logger,
		client: steam.NewClient(),
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
	}
}

func (c *SteamClient) Events() <-chan Event {
	return c.events
}

func (c *SteamClient) SteamID() uint64 {
	return c.client.SteamId().ToUint64()
}

// Connect dials Steam. Connection progress is reported through Events.
func (c *SteamClient) Connect() {
	c.pumpOnce.Do(func() {
		go c.pump()
	})
	c.logger.Info("Connecting to Steam")
	c.client.Connect()
}

func (c *SteamClient) Login(cred domain.Credential) {
	c.client.Auth.LogOn(&steam.LogOnDetails{
		Username: cred.Login,
		Password: cred.Password,
	})
}

// StartGC announces Dota 2 as the running game and greets the GC. The GC
// answers with a welcome that is emitted as GCReady.
func (c *SteamClient) StartGC() {
	c.mu.Lock()
	if c.dota == nil {
		c.dota = dota2.New(c.client, c.logger)
		c.client.GC.RegisterPacketHandler(c)
	}
	dota := c.dota
	c.mu.Unlock()

	dota.SetPlaying(true)
	time.AfterFunc(helloDelay, func() {
		select {
		case <-c.done:
		default:
			dota.SayHello()
		}
	})
}

func (c *SteamClient) CreateLobby(cfg LobbyConfig) {
	c.withDota(func(d *dota2.Dota2) {
		d.CreateLobby(cfg.Details(0))
		c.logger.WithField("game_name", cfg.Name).Info("Lobby creation request sent")
	})
}

func (c *SteamClient) ConfigureLobby(lobbyID uint64, cfg LobbyConfig) {
	c.withDota(func(d *dota2.Dota2) {
		d.SetLobbyDetails(cfg.Details(lobbyID))
		c.logger.WithFields(logrus.Fields{
			"lobby_id":      lobbyID,
			"game_mode":     cfg.GameMode,
			"server_region": cfg.ServerRegion,
			"cm_pick":       cfg.CMPick.String(),
		}).Info("Set lobby settings")
	})
}

// JoinChat joins the lobby chat channel; SendChat and ChatMessage events
// are scoped to it afterwards.
func (c *SteamClient) JoinChat(ctx context.Context, lobbyID uint64) error {
	dota := c.dotaClient()
	if dota == nil {
		return fmt.Errorf("join lobby chat: game coordinator not started")
	}
	resp, err := dota.JoinChatChannel(ctx, fmt.Sprintf("Lobby_%d", lobbyID),
		protocol.DOTAChatChannelTypeT_DOTAChannelType_Lobby, false)
	if err != nil {
		return fmt.Errorf("join lobby chat: %w", err)
	}

	c.mu.Lock()
	c.chatChannelID = resp.GetChannelId()
	c.mu.Unlock()
	c.logger.WithField("channel_id", resp.GetChannelId()).Info("Joined lobby chat")
	return nil
}

func (c *SteamClient) JoinTeam(team protocol.DOTA_GC_TEAM, slot uint32) {
	c.withDota(func(d *dota2.Dota2) {
		d.JoinLobbyTeam(team, slot)
	})
}

func (c *SteamClient) KickMember(steamID uint64) {
	c.withDota(func(d *dota2.Dota2) {
		d.KickLobbyMember(AccountID(steamID))
	})
}

func (c *SteamClient) KickFromTeam(steamID uint64) {
	c.withDota(func(d *dota2.Dota2) {
		d.KickLobbyMemberFromTeam(AccountID(steamID))
	})
}

func (c *SteamClient) FlipTeams() {
	c.withDota(func(d *dota2.Dota2) {
		d.FlipLobbyTeams()
	})
}

func (c *SteamClient) LaunchLobby() {
	c.withDota(func(d *dota2.Dota2) {
		d.LaunchLobby()
	})
}

func (c *SteamClient) DestroyLobby(ctx context.Context) error {
	dota := c.dotaClient()
	if dota == nil {
		return nil
	}
	if _, err := dota.DestroyLobby(ctx); err != nil {
		return fmt.Errorf("destroy lobby: %w", err)
	}
	return nil
}

func (c *SteamClient) SendChat(message string) {
	c.mu.Lock()
	channelID := c.chatChannelID
	dota := c.dota
	c.mu.Unlock()

	if dota == nil || channelID == 0 {
		c.logger.WithField("message", message).Debug("Lobby chat not joined, message dropped")
		return
	}
	dota.SendChannelMessage(channelID, message)
}

// Close stops the keepalive and event pump and disconnects from Steam.
func (c *SteamClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if dota := c.dotaClient(); dota != nil {
			dota.SetPlaying(false)
		}
		c.client.Disconnect()
	})
}

// HandleGCPacket implements gamecoordinator.GCPacketHandler.
func (c *SteamClient) HandleGCPacket(p *gamecoordinator.GCPacket) {
	if p.AppId != dotaAppID {
		return
	}

	if p.MsgType == chatMessageType {
		c.mu.Lock()
		channelID := c.chatChannelID
		c.mu.Unlock()
		if msg, ok := decodeChat(p.Body, channelID); ok {
			c.deliver(msg)
		}
		return
	}

	events, err := decodeSharedObjects(p.MsgType, p.Body)
	if err != nil {
		c.logger.WithError(err).WithField("msg_type", p.MsgType).Warn("Failed to decode GC packet")
		return
	}
	for _, ev := range events {
		c.deliver(ev)
	}
}

func (c *SteamClient) pump() {
	for {
		var event interface{}
		select {
		case <-c.done:
			return
		case ev, ok := <-c.client.Events():
			if !ok {
				return
			}
			event = ev
		}

		switch e := event.(type) {
		case *steam.ConnectedEvent:
			c.logger.Info("Connected to Steam")
			c.emit(Connected{})

		case *steam.LoggedOnEvent:
			c.logger.Info("Logged in to Steam")
			c.client.Social.SetPersonaState(steamlang.EPersonaState_Online)
			c.emit(LoggedOn{})

		case *steam.LogOnFailedEvent:
			c.logger.WithField("result", e.Result.String()).Warn("Steam login failed")
			c.emit(LogOnFailed{Reason: e.Result.String()})

		case *steam.DisconnectedEvent:
			c.logger.Warn("Disconnected from Steam")
			c.emit(Disconnected{})

		case *devents.ClientWelcomed:
			c.logger.Info("GC client welcomed")
			c.startKeepalive()
			c.emit(GCReady{})

		case *devents.GCConnectionStatusChanged:
			c.handleConnectionStatusChange(e)

		case error:
			c.logger.WithError(e).Warn("Steam error")
		}
	}
}

func (c *SteamClient) handleConnectionStatusChange(event *devents.GCConnectionStatusChanged) {
	if event.OldState == protocol.GCConnectionStatus_GCConnectionStatus_HAVE_SESSION &&
		event.NewState != protocol.GCConnectionStatus_GCConnectionStatus_HAVE_SESSION {
		c.logger.WithField("state", event.NewState.String()).Warn("GC session lost, saying hello again")
		time.AfterFunc(rehelloDelay, func() {
			dota := c.dotaClient()
			if dota == nil {
				return
			}
			select {
			case <-c.done:
			default:
				dota.SetPlaying(true)
				dota.SayHello()
			}
		})
	}
}

// startKeepalive greets the GC periodically so long games do not lose the
// GC session.
func (c *SteamClient) startKeepalive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keepaliveRunning {
		return
	}
	c.keepaliveRunning = true

	go func() {
		ticker := time.NewTicker(keepaliveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				if dota := c.dotaClient(); dota != nil {
					dota.SayHello()
					c.logger.Debug("GC keepalive sent")
				}
			}
		}
	}()
}

func (c *SteamClient) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// deliver hands a GC event to the session without blocking, since it runs on
// the go-steam read loop that also carries the replies JoinChat and
// DestroyLobby wait for. Events that do not fit are queued for flush.
func (c *SteamClient) deliver(ev Event) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()

	if len(c.overflow) == 0 && !c.flushing {
		select {
		case c.events <- ev:
			return
		default:
		}
	}

	n := len(c.overflow)
	switch {
	case isLobbyChanged(ev) && n > 0 && isLobbyChanged(c.overflow[n-1]):
		c.overflow[n-1] = ev
	case n >= overflowLimit:
		c.logger.WithField("event", fmt.Sprintf("%T", ev)).Warn("Event queue full, GC event dropped")
		return
	default:
		c.overflow = append(c.overflow, ev)
	}

	if !c.flushing {
		c.flushing = true
		go c.flush()
	}
}

func (c *SteamClient) flush() {
	for {
		c.queueMu.Lock()
		if len(c.overflow) == 0 {
			c.flushing = false
			c.queueMu.Unlock()
			return
		}
		ev := c.overflow[0]
		c.overflow = c.overflow[1:]
		c.queueMu.Unlock()

		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func isLobbyChanged(ev Event) bool {
	_, ok := ev.(LobbyChanged)
	return ok
}

func (c *SteamClient) dotaClient() *dota2.Dota2 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dota
}

func (c *SteamClient) withDota(fn func(d *dota2.Dota2)) {
	dota := c.dotaClient()
	if dota == nil {
		c.logger.Warn("Game coordinator not started, command dropped")
		return
	}
	fn(dota)
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/betbot/nftmarket/internal/balance"
	"github.com/betbot/nftmarket/internal/orderbook"
	"github.com/betbot/nftmarket/internal/services"
	"github.com/betbot/nftmarket/internal/session"
	"github.com/betbot/nftmarket/internal/trade"
	"github.com/betbot/nftmarket/pkg/sigchan"
)

// Storefront 终端界面依赖的商城操作
type Storefront interface {
	Identity() session.Identity
	Connect(ctx context.Context) (session.Identity, error)
	Reload(ctx context.Context) error
	Listings() []services.Listing
	Balance() balance.Snapshot
	OnOrderBookUpdate(fn func(orderbook.Snapshot))
	SelectForBuy(tokenID, sellerKey string) (services.BuyCandidate, error)
	ConfirmBuy(ctx context.Context) error
	CancelBuy()
}

// Options 界面选项
type Options struct {
	AutoConnect bool          // 启动时自动连接钱包
	OpTimeout   time.Duration // 单次操作超时
}

type (
	orderBookUpdatedMsg struct{}
	reloadedMsg         struct{ err error }
	connectedMsg        struct {
		id  session.Identity
		err error
	}
	buyResultMsg struct{ err error }
)

// Model bubbletea 模型
type Model struct {
	store   Storefront
	opts    Options
	updates *sigchan.Chan

	listings  []services.Listing
	native    string
	identity  session.Identity
	cursor    int
	candidate *services.BuyCandidate
	busy      bool
	status    string
	lastErr   string
}

// New 创建模型并订阅订单簿更新
func New(store Storefront, opts Options) Model {
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 30 * time.Second
	}
	updates := sigchan.New()
	store.OnOrderBookUpdate(func(orderbook.Snapshot) { updates.Emit() })

	m := Model{store: store, opts: opts, updates: updates}
	m.sync()
	return m
}

func (m *Model) sync() {
	m.listings = m.store.Listings()
	m.native = m.store.Balance().Native.String()
	m.identity = m.store.Identity()
	if m.cursor >= len(m.listings) {
		m.cursor = max(0, len(m.listings)-1)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForUpdate()}
	if m.opts.AutoConnect {
		cmds = append(cmds, m.connectCmd())
	} else {
		cmds = append(cmds, m.reloadCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.updates.C()
		return orderBookUpdatedMsg{}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.OpTimeout)
		defer cancel()
		return reloadedMsg{err: m.store.Reload(ctx)}
	}
}

func (m Model) connectCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.OpTimeout)
		defer cancel()
		id, err := m.store.Connect(ctx)
		return connectedMsg{id: id, err: err}
	}
}

func (m Model) confirmBuyCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.opts.OpTimeout)
		defer cancel()
		return buyResultMsg{err: m.store.ConfirmBuy(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case orderBookUpdatedMsg:
		m.sync()
		return m, m.waitForUpdate()

	case reloadedMsg:
		m.busy = false
		m.sync()
		if msg.err != nil {
			m.lastErr = "刷新失败: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("已刷新 %s", time.Now().Format("15:04:05"))
		}
		return m, nil

	case connectedMsg:
		m.busy = false
		m.sync()
		if msg.err != nil {
			m.lastErr = "连接钱包失败: " + msg.err.Error()
		} else {
			m.lastErr = ""
			m.status = "钱包已连接"
		}
		return m, nil

	case buyResultMsg:
		m.busy = false
		m.candidate = nil
		if msg.err != nil {
			m.store.CancelBuy()
			m.lastErr = describeError(msg.err)
		} else {
			m.lastErr = ""
			m.status = "✅ 购买成功"
		}
		m.sync()
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	// 购买确认对话框
	if m.candidate != nil {
		switch key {
		case "y", "enter":
			m.busy = true
			m.status = "提交订单中..."
			return m, m.confirmBuyCmd()
		case "n", "esc":
			m.store.CancelBuy()
			m.candidate = nil
			m.status = "已取消"
		}
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.listings)-1 {
			m.cursor++
		}
	case "r":
		m.busy = true
		m.status = "刷新中..."
		return m, m.reloadCmd()
	case "c":
		m.busy = true
		m.status = "连接钱包中..."
		return m, m.connectCmd()
	case "b":
		if len(m.listings) == 0 {
			return m, nil
		}
		o := m.listings[m.cursor].Order
		c, err := m.store.SelectForBuy(o.TokenID, o.SellerKey)
		if err != nil {
			m.lastErr = describeError(err)
			return m, nil
		}
		m.lastErr = ""
		m.candidate = &c
	}
	return m, nil
}

// describeError 面向用户的错误文案
func describeError(err error) string {
	switch {
	case errors.Is(err, trade.ErrSelfTrade):
		return "不能购买自己挂出的 NFT"
	case errors.Is(err, trade.ErrInsufficientBalance):
		return "ETH 余额不足"
	case errors.Is(err, services.ErrNotConnected):
		return "请先连接钱包（按 c）"
	case errors.Is(err, services.ErrOrderNotFound):
		return "订单已不存在，请刷新"
	}
	switch trade.StageOf(err) {
	case trade.StageSigningFailed:
		return "签名失败: " + err.Error()
	case trade.StageAPIFailure:
		return "提交失败: " + err.Error()
	}
	return err.Error()
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("NFT Marketplace"))
	b.WriteString("\n\n")

	account := mutedStyle.Render("未连接")
	if m.identity.Connected() {
		account = m.identity.PublicKey
	}
	b.WriteString(fmt.Sprintf("%s %s\n", titleStyle.Render("账户:"), account))
	b.WriteString(fmt.Sprintf("%s %s ETH\n", titleStyle.Render("余额:"), m.native))
	b.WriteString(fmt.Sprintf("%s %s\n\n", titleStyle.Render("合约:"), m.identity.ActiveCollectionAddress))

	b.WriteString(borderStyle.Render(m.renderListings()))
	b.WriteString("\n")

	if m.candidate != nil {
		c := m.candidate
		dialog := fmt.Sprintf("购买 #%s\n价格: %s ETH\n卖家: %s\n\n[y] 确认  [n] 取消",
			c.Order.TokenID, priceStyle.Render(c.Order.PriceDisplay), c.Order.SellerKey)
		b.WriteString(dialogStyle.Render(dialog))
		b.WriteString("\n")
	}

	if m.lastErr != "" {
		b.WriteString(errorStyle.Render("✗ " + m.lastErr))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(okStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("↑/↓ 选择  b 购买  r 刷新  c 连接钱包  q 退出"))
	return b.String()
}

func (m Model) renderListings() string {
	if len(m.listings) == 0 {
		return mutedStyle.Render("暂无挂单")
	}
	rows := make([]string, 0, len(m.listings)+1)
	rows = append(rows, titleStyle.Render(fmt.Sprintf("%-10s %-14s %-6s %s", "Token", "价格(ETH)", "图片", "卖家")))
	for i, l := range m.listings {
		image := "-"
		if l.Image != "" {
			image = "✓"
		}
		line := fmt.Sprintf("%-10s %-14s %-6s %s", "#"+l.Order.TokenID, l.Order.PriceDisplay, image, shorten(l.Order.SellerKey))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		rows = append(rows, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func shorten(k string) string {
	if len(k) <= 14 {
		return k
	}
	return k[:8] + "…" + k[len(k)-4:]
}

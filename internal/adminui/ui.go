// Package adminui implements the interactive staff TUI using Bubble Tea.
// It drives the same REST API the web frontend uses.
package adminui

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mailportal/internal/adminapi"
)

// state represents the current screen.
type state int

const (
	stateLogin state = iota
	stateJobs
	stateCreds
	stateSetStatus
	stateSetPassword
)

// Model holds all UI state.
type Model struct {
	client *adminapi.Client
	addr   string

	st  state
	err string

	email    textinput.Model
	password textinput.Model

	jobs    []adminapi.Job
	jobLst  list.Model
	creds   []adminapi.Credential
	credLst list.Model

	statusIn textinput.Model
	passIn   textinput.Model
}

// New constructs a UI model with inputs and lists initialized.
func New(client *adminapi.Client, addr string) Model {
	email := textinput.New()
	email.Placeholder = "staff@example.com"
	email.Prompt = "Email: "
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.Prompt = "Password: "

	jobLst := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	jobLst.Title = "Campaigns"

	credLst := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	credLst.Title = "SFTP credentials"

	statusIn := textinput.New()
	statusIn.Placeholder = "PROOFING"
	statusIn.Prompt = "New status: "

	passIn := textinput.New()
	passIn.Placeholder = "new password"
	passIn.EchoMode = textinput.EchoPassword
	passIn.Prompt = "New password: "

	m := Model{
		client: client, st: stateLogin,
		email: email, password: password,
		jobLst: jobLst, credLst: credLst,
		statusIn: statusIn, passIn: passIn,
	}
	m.addr = redactAddr(addr)
	return m
}

// LoggedIn skips the login screen for a client that already holds a token.
func (m Model) LoggedIn() Model {
	m.st = stateJobs
	return m
}

func (m Model) Init() tea.Cmd {
	if m.st == stateJobs {
		return refreshJobsCmd(m.client)
	}
	return nil
}

type errMsg string
type jobsMsg []adminapi.Job
type credsMsg []adminapi.Credential
type loggedInMsg struct{}
type okMsg struct{}

// Update routes messages based on UI state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.jobLst.SetSize(msg.Width-4, msg.Height-8)
		m.credLst.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	case errMsg:
		m.err = string(msg)
		return m, nil
	case jobsMsg:
		m.jobs = []adminapi.Job(msg)
		items := make([]list.Item, 0, len(m.jobs))
		for _, j := range m.jobs {
			items = append(items, jobItem(j))
		}
		m.jobLst.SetItems(items)
		m.err = ""
		return m, nil
	case credsMsg:
		m.creds = []adminapi.Credential(msg)
		items := make([]list.Item, 0, len(m.creds))
		for _, c := range m.creds {
			items = append(items, credItem(c))
		}
		m.credLst.SetItems(items)
		m.err = ""
		return m, nil
	case loggedInMsg:
		m.err = ""
		m.st = stateJobs
		return m, refreshJobsCmd(m.client)
	case okMsg:
		m.err = ""
		return m, nil
	}

	switch m.st {
	case stateLogin:
		return m.updateLogin(msg)
	case stateJobs:
		return m.updateJobs(msg)
	case stateCreds:
		return m.updateCreds(msg)
	case stateSetStatus:
		return m.updateSetStatus(msg)
	case stateSetPassword:
		return m.updateSetPassword(msg)
	default:
		return m, nil
	}
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.email.Focused() {
				m.email.Blur()
				m.password.Focus()
			} else {
				m.password.Blur()
				m.email.Focus()
			}
			return m, nil
		case "enter":
			email := strings.TrimSpace(m.email.Value())
			pw := m.password.Value()
			m.password.SetValue("")
			return m, loginCmd(m.client, email, pw)
		}
	}
	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) updateJobs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.jobLst, cmd = m.jobLst.Update(msg)
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, refreshJobsCmd(m.client)
		case "c":
			m.st = stateCreds
			m.err = ""
			return m, refreshCredsCmd(m.client)
		case "s":
			if _, ok := m.selectedJob(); !ok {
				return m, nil
			}
			m.st = stateSetStatus
			m.err = ""
			m.statusIn.SetValue("")
			m.statusIn.Focus()
			return m, nil
		}
	}
	return m, cmd
}

func (m Model) updateCreds(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.credLst, cmd = m.credLst.Update(msg)
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.st = stateJobs
			return m, refreshJobsCmd(m.client)
		case "r":
			return m, refreshCredsCmd(m.client)
		case "t":
			c, ok := m.selectedCred()
			if !ok {
				return m, nil
			}
			return m, tea.Sequence(toggleCredCmd(m.client, c.ID, !c.Active), refreshCredsCmd(m.client))
		case "p":
			if _, ok := m.selectedCred(); !ok {
				return m, nil
			}
			m.st = stateSetPassword
			m.err = ""
			m.passIn.SetValue("")
			m.passIn.Focus()
			return m, nil
		}
	}
	return m, cmd
}

func (m Model) updateSetStatus(msg tea.Msg) (tea.Model, tea.Cmd) {
	j, ok := m.selectedJob()
	if !ok {
		m.st = stateJobs
		return m, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			m.st = stateJobs
			return m, nil
		case "enter":
			status := strings.ToUpper(strings.TrimSpace(m.statusIn.Value()))
			m.st = stateJobs
			return m, tea.Sequence(setStatusCmd(m.client, j.ID, status), refreshJobsCmd(m.client))
		}
	}
	var cmd tea.Cmd
	m.statusIn, cmd = m.statusIn.Update(msg)
	return m, cmd
}

func (m Model) updateSetPassword(msg tea.Msg) (tea.Model, tea.Cmd) {
	c, ok := m.selectedCred()
	if !ok {
		m.st = stateCreds
		return m, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			m.st = stateCreds
			return m, nil
		case "enter":
			pw := m.passIn.Value()
			m.passIn.SetValue("")
			m.st = stateCreds
			return m, tea.Sequence(setCredPasswordCmd(m.client, c.ID, pw), refreshCredsCmd(m.client))
		}
	}
	var cmd tea.Cmd
	m.passIn, cmd = m.passIn.Update(msg)
	return m, cmd
}

// View renders the current screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString("Warranty portal admin")
	if m.addr != "" {
		b.WriteString(" (" + m.addr + ")")
	}
	b.WriteString("\n\n")

	switch m.st {
	case stateLogin:
		b.WriteString("Login\n")
		b.WriteString(m.email.View() + "\n")
		b.WriteString(m.password.View() + "\n\n")
		b.WriteString("Tab to switch fields. Enter to login. Ctrl+C to quit.\n")
	case stateJobs:
		b.WriteString(m.jobLst.View())
		b.WriteString("\nKeys: s=set-status c=credentials r=refresh q=quit\n")
	case stateCreds:
		b.WriteString(m.credLst.View())
		b.WriteString("\nKeys: t=toggle-active p=set-password r=refresh esc=back q=quit\n")
	case stateSetStatus:
		if j, ok := m.selectedJob(); ok {
			fmt.Fprintf(&b, "Set status for: %s (currently %s)\n\n", j.CampaignName, j.Status)
		}
		b.WriteString(m.statusIn.View())
		b.WriteString("\n\nEnter=save  esc=back\n")
	case stateSetPassword:
		if c, ok := m.selectedCred(); ok {
			b.WriteString("Set password for: " + c.Username + "\n\n")
		}
		b.WriteString(m.passIn.View())
		b.WriteString("\n\nEnter=save  esc=back\n")
	}

	if m.err != "" {
		b.WriteString("\nError: " + m.err + "\n")
	}
	return b.String()
}

type jobItem adminapi.Job

func (j jobItem) Title() string {
	return fmt.Sprintf("%s (%s %d)", j.CampaignName, j.Month, j.Year)
}
func (j jobItem) Description() string {
	owner := ""
	if j.User != nil {
		owner = j.User.Email
	}
	return fmt.Sprintf("status=%s files=%d owner=%s", j.Status, j.FileCount, owner)
}
func (j jobItem) FilterValue() string { return j.CampaignName }

type credItem adminapi.Credential

func (c credItem) Title() string { return c.Username }
func (c credItem) Description() string {
	last := "never"
	if c.LastUsed != nil {
		last = time.Unix(*c.LastUsed, 0).Format("2006-01-02 15:04")
	}
	owner := ""
	if c.User != nil {
		owner = c.User.Email
	}
	return fmt.Sprintf("active=%v last_used=%s owner=%s", c.Active, last, owner)
}
func (c credItem) FilterValue() string { return c.Username }

func (m *Model) selectedJob() (adminapi.Job, bool) {
	if it, ok := m.jobLst.SelectedItem().(jobItem); ok {
		return adminapi.Job(it), true
	}
	return adminapi.Job{}, false
}

func (m *Model) selectedCred() (adminapi.Credential, bool) {
	if it, ok := m.credLst.SelectedItem().(credItem); ok {
		return adminapi.Credential(it), true
	}
	return adminapi.Credential{}, false
}

func loginCmd(c *adminapi.Client, email, password string) tea.Cmd {
	return func() tea.Msg {
		if _, err := c.Login(email, password); err != nil {
			return errMsg(err.Error())
		}
		return loggedInMsg{}
	}
}

func refreshJobsCmd(c *adminapi.Client) tea.Cmd {
	return func() tea.Msg {
		jobs, err := c.ListJobs()
		if err != nil {
			return errMsg(err.Error())
		}
		return jobsMsg(jobs)
	}
}

func refreshCredsCmd(c *adminapi.Client) tea.Cmd {
	return func() tea.Msg {
		creds, err := c.ListCredentials()
		if err != nil {
			return errMsg(err.Error())
		}
		return credsMsg(creds)
	}
}

func setStatusCmd(c *adminapi.Client, id, status string) tea.Cmd {
	return func() tea.Msg {
		if err := c.SetJobStatus(id, status); err != nil {
			return errMsg(err.Error())
		}
		return okMsg{}
	}
}

func toggleCredCmd(c *adminapi.Client, id string, active bool) tea.Cmd {
	return func() tea.Msg {
		if err := c.SetCredentialActive(id, active); err != nil {
			return errMsg(err.Error())
		}
		return okMsg{}
	}
}

func setCredPasswordCmd(c *adminapi.Client, id, password string) tea.Cmd {
	return func() tea.Msg {
		if err := c.SetCredentialPassword(id, password); err != nil {
			return errMsg(err.Error())
		}
		return okMsg{}
	}
}

func redactAddr(addr string) string {
	u, err := url.Parse(addr)
	if err != nil {
		return ""
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	return u.Scheme + "://" + u.Host
}

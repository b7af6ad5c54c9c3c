// Package download sequences a single download attempt: eligibility check,
// credit-aware recording, canonical URL resolution, then the host-native file
// save. Every branch reports its outcome through the injected Notifier.
package download

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"path"
	"strings"
	"sync/atomic"

	"github.com/open-rails/downloadkit/assets"
	"github.com/open-rails/downloadkit/entitlement"
	"github.com/open-rails/downloadkit/notify"
	"github.com/open-rails/downloadkit/records"
	"github.com/open-rails/downloadkit/session"
	"github.com/open-rails/downloadkit/subscription"
)

// State is where an attempt ended up. The terminal states are the observable
// exit codes of the flow; notifications carry the user-facing detail.
type State string

const (
	StateIdle                State = "idle"
	StateLoginRequired       State = "login_required"
	StateCheckingEligibility State = "checking_eligibility"
	StateDenied              State = "denied"
	StateEligible            State = "eligible"
	StateRecording           State = "recording"
	StateFileResolved        State = "file_resolved"
	StateDownloading         State = "downloading"
	StateFailed              State = "failed"
	StateDone                State = "done"
)

// ErrInFlight is returned when an attempt is already running on this
// orchestrator. The guard is advisory, for blocking re-entrant UI triggers.
var ErrInFlight = errors.New("download: attempt already in flight")

// Deps are the orchestrator's collaborators. Entitlement, Recorder, Assets,
// Session and Platform are required; Notifier defaults to a no-op sink.
type Deps struct {
	Entitlement entitlement.Checker
	Recorder    records.Recorder
	Assets      assets.Lookup
	Session     session.Store
	Notifier    notify.Notifier
	Platform    Platform

	// Subscription optionally supplies a fallback subscription id for paid
	// downloads when the eligibility result carries none.
	Subscription *subscription.Cache

	// OnSuccess, when set, is invoked after a completed download so the host
	// can resynchronize cached subscription state.
	OnSuccess func(ctx context.Context)
}

// Config tunes orchestrator behavior. The zero value is usable.
type Config struct {
	// LowCreditThreshold emits an advisory warning when the eligibility quota
	// snapshot shows this many remaining free downloads or fewer. Default 3.
	LowCreditThreshold int
}

func (c *Config) defaulted() Config {
	out := Config{LowCreditThreshold: 3}
	if c != nil && c.LowCreditThreshold > 0 {
		out.LowCreditThreshold = c.LowCreditThreshold
	}
	return out
}

// Orchestrator runs download attempts one at a time.
type Orchestrator struct {
	cfg      Config
	deps     Deps
	inFlight atomic.Bool
}

func NewOrchestrator(deps Deps, cfg *Config) (*Orchestrator, error) {
	switch {
	case deps.Entitlement == nil:
		return nil, errors.New("download: entitlement checker is required")
	case deps.Recorder == nil:
		return nil, errors.New("download: recorder is required")
	case deps.Assets == nil:
		return nil, errors.New("download: asset lookup is required")
	case deps.Session == nil:
		return nil, errors.New("download: session store is required")
	case deps.Platform == nil:
		return nil, errors.New("download: platform capabilities are required")
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop()
	}
	return &Orchestrator{cfg: cfg.defaulted(), deps: deps}, nil
}

// Downloading reports whether an attempt is currently in flight.
func (o *Orchestrator) Downloading() bool { return o.inFlight.Load() }

// Download runs one attempt for the given asset and returns its terminal
// state. All user-facing outcomes are emitted through the Notifier; the error
// return is non-nil only when the attempt never started (re-entrant call).
//
// Within one invocation the eligibility check strictly precedes recording,
// recording strictly precedes URL resolution, and resolution strictly
// precedes the file-save trigger; a denial short-circuits before any credit
// is consumed.
func (o *Orchestrator) Download(ctx context.Context, asset assets.Asset) (State, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return StateIdle, ErrInFlight
	}
	defer o.inFlight.Store(false)
	return o.run(ctx, asset), nil
}

func (o *Orchestrator) run(ctx context.Context, asset assets.Asset) State {
	token, userID, ok := o.currentSession(ctx)
	if !ok {
		o.notify("Login Required", "Please log in to download assets.", notify.SeverityDefault)
		return StateLoginRequired
	}

	cachedSubID := ""
	if o.deps.Subscription != nil {
		if sub := o.deps.Subscription.Current(); sub != nil {
			cachedSubID = sub.ID
		}
	}

	res, err := o.deps.Entitlement.CheckEligibility(ctx, token, entitlement.Request{
		UserID:         userID,
		AssetID:        asset.ID,
		SubscriptionID: cachedSubID,
	})
	if err != nil || res == nil || !res.CanDownload {
		// A transport failure and a missing result read the same as an
		// explicit denial: nothing may be recorded.
		reason := ""
		var quota *entitlement.QuotaInfo
		if res != nil {
			reason = res.Reason
			quota = res.Quota
		}
		n := denialNotification(reason, quota)
		o.notify(n.Title, n.Body, n.Severity)
		return StateDenied
	}

	if res.Quota != nil && res.Quota.RemainingToday <= o.cfg.LowCreditThreshold {
		o.notify("Credit Warning",
			fmt.Sprintf("Only %d free downloads left today.", res.Quota.RemainingToday),
			notify.SeverityDefault)
	}

	// Free vs. paid is derived from the asset tier alone; the eligibility
	// payload's own isFree flag is advisory and never trusted over the tier.
	isFree := !asset.IsPremium()
	subID := res.SubscriptionID
	if subID == "" {
		subID = cachedSubID
	}
	if !isFree && subID == "" {
		o.notify("Subscription Required",
			"An active subscription is needed to download this asset.",
			notify.SeverityDestructive)
		return StateFailed
	}

	rec, err := o.deps.Recorder.RecordDownload(ctx, token, records.Request{
		UserID:         userID,
		AssetID:        asset.ID,
		SubscriptionID: subID,
		IsFree:         isFree,
	})
	if err != nil {
		return o.fail("Download Failed", errMessage(err))
	}
	if rec == nil {
		return o.fail("Download Failed", "Unable to start the download. Please try again.")
	}
	if rec.FileReference() == "" {
		return o.fail("Download Failed", "File URL not available.")
	}

	// Second lookup: the recorder may hold only a low-resolution or
	// placeholder reference, the catalog holds the canonical artifact.
	full, err := o.deps.Assets.GetAssetByID(ctx, token, asset.ID)
	if err != nil || full == nil {
		return o.fail("Download Failed", "Unable to get asset information.")
	}
	url := full.DownloadURL()
	if url == "" {
		url = rec.FileReference()
	}
	if url == "" {
		return o.fail("Download Failed", "Download URL not available.")
	}

	filename := deriveFilename(resolveTitle(full, rec, asset), asset.ID, url)
	o.deps.Platform.TriggerFileSave(url, filename)

	o.notify("Download Started", fmt.Sprintf("%s is downloading.", filename), notify.SeverityDefault)
	if o.deps.OnSuccess != nil {
		o.deps.OnSuccess(ctx)
	}
	return StateDone
}

// currentSession reads the persisted token and user; any gap means the
// unauthenticated branch, before a single network call is made.
func (o *Orchestrator) currentSession(ctx context.Context) (token, userID string, ok bool) {
	token, ok, err := o.deps.Session.GetToken(ctx)
	if err != nil || !ok {
		return "", "", false
	}
	user, err := o.deps.Session.GetUser(ctx)
	if err != nil || user == nil || user.ID == "" {
		return "", "", false
	}
	return token, user.ID, true
}

func (o *Orchestrator) fail(title, body string) State {
	o.notify(title, body, notify.SeverityDestructive)
	return StateFailed
}

func (o *Orchestrator) notify(title, body string, severity notify.Severity) {
	o.deps.Notifier.Notify(title, body, severity)
}

func resolveTitle(full *assets.Asset, rec *records.Result, requested assets.Asset) string {
	if full != nil && strings.TrimSpace(full.Title) != "" {
		return full.Title
	}
	if rec != nil && rec.Download != nil && rec.Download.Asset != nil &&
		strings.TrimSpace(rec.Download.Asset.Title) != "" {
		return rec.Download.Asset.Title
	}
	return requested.Title
}

// deriveFilename builds the suggested filename from the asset title, falling
// back to a synthetic asset-<id> name, and carries over the URL's extension.
func deriveFilename(title, assetID, url string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = "asset-" + assetID
	}
	ext := urlExt(url)
	if ext != "" && !strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
		name += ext
	}
	return name
}

func urlExt(raw string) string {
	u, err := neturl.Parse(raw)
	if err != nil {
		return ""
	}
	return path.Ext(u.Path)
}

func errMessage(err error) string {
	if err == nil || strings.TrimSpace(err.Error()) == "" {
		return "Unable to start the download. Please try again."
	}
	return err.Error()
}

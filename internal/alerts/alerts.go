// Package alerts evaluates the operator-facing decision tree over live queue depth and
// courier availability, producing a prioritized list of alerts plus a recommended active
// courier count and an overall status.
package alerts

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/italoogomes/motoflash/internal/domain"
	"github.com/italoogomes/motoflash/internal/metrics"
)

// Severity levels, ordered from least to most urgent; Evaluate sets Result.Overall to the
// worst one among all alerts that fired this evaluation.
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityAtencao = "atencao"
	SeverityCritico = "critico"
)

var severityRank = map[string]int{
	SeveritySuccess: 0,
	SeverityInfo:    1,
	SeverityAtencao: 2,
	SeverityCritico: 3,
}

// Alert is a single operator-facing notice.
type Alert struct {
	Type            string
	Severity        string
	Title           string
	Message         string
	Value           int
	Icon            string
	SuggestedAction string
}

// Result is the full output of Evaluate.
type Result struct {
	Overall             string
	RecommendedCouriers int
	Alerts              []Alert
}

// Evaluate runs every rule of the decision tree against the tenant's current state and
// returns every rule that matched, in rule order, with Overall set to the most severe
// matched severity. Every predicate is checked rather than stopping at the first match;
// as written the predicates do not overlap (rules 1–4 need a non-empty queue and split on
// available/busy counts, rules 5–6 need an empty one), so exactly one alert is returned.
func Evaluate(ctx context.Context, store domain.Store, tenantID uuid.UUID, now time.Time) (*Result, error) {
	snap, err := metrics.Compute(ctx, store, tenantID, now)
	if err != nil {
		return nil, fmt.Errorf("evaluate alerts: %w", err)
	}

	queue := snap.QueueDepth
	available := snap.AvailableCouriers
	busy := snap.BusyCouriers
	totalActive := available + busy
	inRoute := snap.InRouteCount

	var matched []Alert
	recommended := 0

	if queue > 0 && totalActive == 0 {
		rec := int(math.Max(1, math.Ceil(float64(queue)/2)+1))
		if rec > recommended {
			recommended = rec
		}
		matched = append(matched, Alert{
			Type:     "no_couriers",
			Severity: SeverityCritico,
			Title:    "Nenhum entregador ativo",
			Message:  fmt.Sprintf("%d pedido(s) na fila e nenhum entregador ativo.", queue),
			Value:    queue,
			Icon:     "alert-triangle",
			SuggestedAction: "ativar entregadores imediatamente",
		})
	}

	if queue > 0 && available >= queue {
		matched = append(matched, Alert{
			Type:            "ready_to_dispatch",
			Severity:        SeverityInfo,
			Title:           "Pronto para despachar",
			Message:         fmt.Sprintf("%d pedido(s) prontos e entregadores suficientes disponíveis.", queue),
			Value:           queue,
			Icon:            "info",
			SuggestedAction: "executar despacho",
		})
	}

	if queue > 0 && available > 0 && available < queue {
		need := queue - available
		if need > recommended {
			recommended = need
		}
		matched = append(matched, Alert{
			Type:            "insufficient_couriers",
			Severity:        SeverityAtencao,
			Title:           "Entregadores insuficientes",
			Message:         fmt.Sprintf("%d pedido(s) na fila, apenas %d entregador(es) disponível(is).", queue, available),
			Value:           need,
			Icon:            "alert-circle",
			SuggestedAction: fmt.Sprintf("ativar mais %d entregador(es)", need),
		})
	}

	if queue > 0 && available == 0 && busy > 0 {
		matched = append(matched, Alert{
			Type:            "waiting_for_returns",
			Severity:        SeverityAtencao,
			Title:           "Aguardando retorno de entregadores",
			Message:         "Todos os entregadores estão ocupados; aguarde o retorno ou ative mais entregadores.",
			Value:           queue,
			Icon:            "clock",
			SuggestedAction: "aguardar retorno ou ativar mais entregadores",
		})
	}

	if queue == 0 && inRoute > 0 {
		matched = append(matched, Alert{
			Type:     "flowing",
			Severity: SeveritySuccess,
			Title:    "Operação fluindo",
			Message:  "Sem fila e pedidos em rota.",
			Icon:     "check-circle",
		})
	}

	if queue == 0 && inRoute == 0 {
		matched = append(matched, Alert{
			Type:     "normal",
			Severity: SeveritySuccess,
			Title:    "Operação normal",
			Message:  "Sem fila e nenhum pedido em rota.",
			Icon:     "check",
		})
	}

	overall := SeveritySuccess
	for _, a := range matched {
		if severityRank[a.Severity] > severityRank[overall] {
			overall = a.Severity
		}
	}

	return &Result{
		Overall:             overall,
		RecommendedCouriers: recommended,
		Alerts:              matched,
	}, nil
}

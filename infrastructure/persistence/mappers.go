package persistence

import (
	"github.com/paulbrigner/xmonitor/domain/monitor"
)

// WatchAccountMapper converts between monitor.WatchAccount and its model.
type WatchAccountMapper struct{}

func (WatchAccountMapper) ToModel(a monitor.WatchAccount) WatchAccountModel {
	return WatchAccountModel{
		Handle:  a.Handle,
		Tier:    string(a.Tier),
		Note:    a.Note,
		AddedAt: a.AddedAt,
	}
}

func (WatchAccountMapper) ToDomain(m WatchAccountModel) monitor.WatchAccount {
	return monitor.WatchAccount{
		Handle:  m.Handle,
		Tier:    monitor.Tier(m.Tier),
		Note:    m.Note,
		AddedAt: m.AddedAt,
	}
}

// PostMapper converts between monitor.Post and its model.
type PostMapper struct{}

func (PostMapper) ToModel(p monitor.Post) PostModel {
	var watchTier *string
	if p.WatchTier != "" {
		tier := string(p.WatchTier)
		watchTier = &tier
	}
	return PostModel{
		StatusID:            p.StatusID,
		URL:                 p.URL,
		AuthorHandle:        p.AuthorHandle,
		AuthorDisplay:       p.AuthorDisplay,
		BodyText:            p.BodyText,
		PostedRelative:      p.PostedRelative,
		SourceQuery:         p.SourceQuery,
		WatchTier:           watchTier,
		IsSignificant:       p.IsSignificant,
		SignificanceReason:  p.SignificanceReason,
		SignificanceVersion: p.SignificanceVersion,
		Likes:               p.Current.Likes,
		Reposts:             p.Current.Reposts,
		Replies:             p.Current.Replies,
		Views:               p.Current.Views,
		InitialLikes:        p.Initial.Likes,
		InitialReposts:      p.Initial.Reposts,
		InitialReplies:      p.Initial.Replies,
		InitialViews:        p.Initial.Views,
		Likes24h:            p.At24h.Likes,
		Reposts24h:          p.At24h.Reposts,
		Replies24h:          p.At24h.Replies,
		Views24h:            p.At24h.Views,
		Refresh24hAt:        p.Refresh24hAt,
		Refresh24hStatus:    p.Refresh24hStatus,
		DeltaLikes24h:       p.Refresh24hDelta.Likes,
		DeltaReposts24h:     p.Refresh24hDelta.Reposts,
		DeltaReplies24h:     p.Refresh24hDelta.Replies,
		DeltaViews24h:       p.Refresh24hDelta.Views,
		DiscoveredAt:        p.DiscoveredAt,
		LastSeenAt:          p.LastSeenAt,
	}
}

func (PostMapper) ToDomain(m PostModel) monitor.Post {
	var watchTier monitor.Tier
	if m.WatchTier != nil {
		watchTier = monitor.Tier(*m.WatchTier)
	}
	return monitor.Post{
		StatusID:            m.StatusID,
		URL:                 m.URL,
		AuthorHandle:        m.AuthorHandle,
		AuthorDisplay:       m.AuthorDisplay,
		BodyText:            m.BodyText,
		PostedRelative:      m.PostedRelative,
		SourceQuery:         m.SourceQuery,
		WatchTier:           watchTier,
		IsSignificant:       m.IsSignificant,
		SignificanceReason:  m.SignificanceReason,
		SignificanceVersion: m.SignificanceVersion,
		Current: monitor.EngagementCounts{
			Likes:   m.Likes,
			Reposts: m.Reposts,
			Replies: m.Replies,
			Views:   m.Views,
		},
		Initial: monitor.EngagementCounts{
			Likes:   m.InitialLikes,
			Reposts: m.InitialReposts,
			Replies: m.InitialReplies,
			Views:   m.InitialViews,
		},
		At24h: monitor.EngagementCounts{
			Likes:   m.Likes24h,
			Reposts: m.Reposts24h,
			Replies: m.Replies24h,
			Views:   m.Views24h,
		},
		Refresh24hAt:     m.Refresh24hAt,
		Refresh24hStatus: m.Refresh24hStatus,
		Refresh24hDelta: monitor.EngagementCounts{
			Likes:   m.DeltaLikes24h,
			Reposts: m.DeltaReposts24h,
			Replies: m.DeltaReplies24h,
			Views:   m.DeltaViews24h,
		},
		DiscoveredAt: m.DiscoveredAt,
		LastSeenAt:   m.LastSeenAt,
	}
}

// ReportMapper converts between monitor.Report and its model.
type ReportMapper struct{}

func (ReportMapper) ToModel(r monitor.Report) ReportModel {
	return ReportModel{
		StatusID:    r.StatusID,
		ReportedAt:  r.ReportedAt,
		Channel:     r.Channel,
		Summary:     r.Summary,
		Destination: r.Destination,
	}
}

func (ReportMapper) ToDomain(m ReportModel) monitor.Report {
	return monitor.Report{
		StatusID:    m.StatusID,
		ReportedAt:  m.ReportedAt,
		Channel:     m.Channel,
		Summary:     m.Summary,
		Destination: m.Destination,
	}
}

// PipelineRunMapper converts between monitor.PipelineRun and its model.
type PipelineRunMapper struct{}

func (PipelineRunMapper) ToModel(r monitor.PipelineRun) PipelineRunModel {
	return PipelineRunModel{
		RunAt:            r.RunAt,
		Mode:             string(r.Mode),
		FetchedCount:     r.FetchedCount,
		SignificantCount: r.SignificantCount,
		ReportedCount:    r.ReportedCount,
		Note:             r.Note,
		Source:           r.Source,
	}
}

func (PipelineRunMapper) ToDomain(m PipelineRunModel) monitor.PipelineRun {
	return monitor.PipelineRun{
		RunAt:            m.RunAt,
		Mode:             monitor.RunMode(m.Mode),
		FetchedCount:     m.FetchedCount,
		SignificantCount: m.SignificantCount,
		ReportedCount:    m.ReportedCount,
		Note:             m.Note,
		Source:           m.Source,
	}
}

// EmbeddingMapper converts between monitor.Embedding and its model.
type EmbeddingMapper struct{}

func (EmbeddingMapper) ToModel(e monitor.Embedding) EmbeddingModel {
	return EmbeddingModel{
		StatusID:  e.StatusID,
		Backend:   e.Backend,
		Model:     e.Model,
		Dims:      e.Dims,
		Vector:    Float64Slice(e.Vector),
		TextHash:  e.TextHash,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (EmbeddingMapper) ToDomain(m EmbeddingModel) monitor.Embedding {
	return monitor.Embedding{
		StatusID:  m.StatusID,
		Backend:   m.Backend,
		Model:     m.Model,
		Dims:      m.Dims,
		Vector:    []float64(m.Vector),
		TextHash:  m.TextHash,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// MetricsSnapshotMapper converts between monitor.MetricsSnapshot and its
// model.
type MetricsSnapshotMapper struct{}

func (MetricsSnapshotMapper) ToModel(s monitor.MetricsSnapshot) MetricsSnapshotModel {
	return MetricsSnapshotModel{
		StatusID:     s.StatusID,
		SnapshotType: string(s.SnapshotType),
		SnapshotAt:   s.SnapshotAt,
		Likes:        s.Counts.Likes,
		Reposts:      s.Counts.Reposts,
		Replies:      s.Counts.Replies,
		Views:        s.Counts.Views,
		Source:       s.Source,
	}
}

func (MetricsSnapshotMapper) ToDomain(m MetricsSnapshotModel) monitor.MetricsSnapshot {
	return monitor.MetricsSnapshot{
		StatusID:     m.StatusID,
		SnapshotType: monitor.SnapshotType(m.SnapshotType),
		SnapshotAt:   m.SnapshotAt,
		Counts: monitor.EngagementCounts{
			Likes:   m.Likes,
			Reposts: m.Reposts,
			Replies: m.Replies,
			Views:   m.Views,
		},
		Source: m.Source,
	}
}

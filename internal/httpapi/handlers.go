package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"dualsub/internal/bilingual"
	"dualsub/internal/burnin"
	"dualsub/internal/cue"
	"dualsub/internal/language"
	"dualsub/internal/logging"
	"dualsub/internal/pipeline"
	"dualsub/internal/subformat"
	"dualsub/internal/translation"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if !s.decode(w, r, &req) {
		return
	}
	doc, ok := s.parseDocument(w, req.Content, req.From, "")
	if !ok {
		return
	}
	to, err := cue.ParseFormat(req.To)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeDocument(w, doc, to)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if !s.decode(w, r, &req) {
		return
	}
	original, ok := s.parseDocument(w, req.Original, req.Format, req.OriginalLanguage)
	if !ok {
		return
	}
	translated, ok := s.parseDocument(w, req.Translated, req.Format, req.TranslatedLanguage)
	if !ok {
		return
	}

	order := s.cfg.BilingualOrder()
	if strings.TrimSpace(req.Order) != "" {
		parsed, err := bilingual.ParseOrder(req.Order)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		order = parsed
	}
	merged, err := bilingual.Merge(original, translated, bilingual.Options{Order: order})
	if err != nil {
		var alignErr *bilingual.AlignmentError
		if errors.As(err, &alignErr) {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	to := merged.Format()
	if strings.TrimSpace(req.To) != "" {
		if to, err = cue.ParseFormat(req.To); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	s.writeDocument(w, merged, to)
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	var req StyleRequest
	if !s.decode(w, r, &req) {
		return
	}
	opts := s.cfg.StyleOptions()
	if req.FontName != nil {
		opts.FontName = *req.FontName
	}
	if req.FontSize != nil {
		opts.FontSize = *req.FontSize
	}
	if req.Position != nil {
		opts.Position = *req.Position
	}
	if req.FontColor != nil {
		opts.FontColor = *req.FontColor
	}
	if req.OutlineColor != nil {
		opts.OutlineColor = *req.OutlineColor
	}
	if req.ShadowRadius != nil {
		opts.ShadowRadius = *req.ShadowRadius
	}

	style, err := burnin.NewStyleSpec(opts)
	if err != nil {
		var styleErr *burnin.StyleValidationError
		if errors.As(err, &styleErr) {
			s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: styleErr.Field})
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := StyleResponse{ForceStyle: style.ForceStyle()}
	if strings.TrimSpace(req.Subtitle) != "" {
		resp.Filter = burnin.FilterSpec(req.Subtitle, style)
	}
	if strings.TrimSpace(req.Video) != "" {
		output := req.Output
		if strings.TrimSpace(output) == "" {
			if output, err = burnin.OutputPath(req.Video, string(burnin.KindBilingual)); err != nil {
				s.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		cmd, err := burnin.BuildCommand(burnin.Request{
			VideoPath:    req.Video,
			SubtitlePath: req.Subtitle,
			OutputPath:   output,
			Style:        style,
			Encode:       s.cfg.EncodeSettings(),
		})
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		resp.Command = append([]string{cmd.Binary}, cmd.Args...)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if !s.decode(w, r, &req) {
		return
	}
	source := firstNonEmpty(req.SourceLanguage, s.cfg.Translation.SourceLanguage)
	doc, ok := s.parseDocument(w, req.Content, req.Format, source)
	if !ok {
		return
	}
	target, err := language.Canonical(firstNonEmpty(req.TargetLanguage, s.cfg.Translation.TargetLanguage))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger := logging.WithContext(r.Context(), s.logger)
	opts := append([]translation.Option{translation.WithLogger(logger)}, s.orchOpts...)
	orch := translation.New(s.translator, pipeline.OrchestratorOptions(s.cfg), opts...)
	translated, err := orch.Translate(r.Context(), doc, target)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			// The client went away; nobody reads the response.
			return
		case translation.KindOf(err) == translation.KindPermanent:
			s.writeError(w, http.StatusBadGateway, err.Error())
		default:
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
		}
		return
	}
	s.writeDocument(w, translated, translated.Format())
}

// parseDocument decodes content, sniffing the format when name is empty. It
// writes the error response itself.
func (s *Server) parseDocument(w http.ResponseWriter, content, name, lang string) (cue.Document, bool) {
	if strings.TrimSpace(content) == "" {
		s.writeError(w, http.StatusBadRequest, "content is required")
		return cue.Document{}, false
	}
	format := subformat.Sniff(content)
	if strings.TrimSpace(name) != "" {
		var err error
		if format, err = cue.ParseFormat(name); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return cue.Document{}, false
		}
	}
	doc, err := subformat.Parse(content, format, subformat.WithLanguage(lang))
	if err != nil {
		var parseErr *subformat.ParseError
		if errors.As(err, &parseErr) {
			s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Line: parseErr.Line})
			return cue.Document{}, false
		}
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return cue.Document{}, false
	}
	return doc, true
}

func (s *Server) writeDocument(w http.ResponseWriter, doc cue.Document, format cue.Format) {
	lossy := false
	if err := subformat.Representable(doc, format); err != nil {
		if !errors.Is(err, subformat.ErrLossyFormat) {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		lossy = true
	}
	out, content := subformat.Convert(doc, format)
	s.writeJSON(w, http.StatusOK, DocumentResponse{
		Content:  content,
		Format:   string(format),
		Language: out.Language(),
		Cues:     out.Len(),
		Lossy:    lossy,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

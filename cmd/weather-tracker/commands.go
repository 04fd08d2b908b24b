package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-tracker/internal/view"
	"github.com/i474232898/weather-tracker/internal/weather"
)

func listCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show tracked places from the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.Load(cmd.Context()); err != nil {
				return err
			}
			return printCities(cmd, a.state.Cities())
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func refreshCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch fresh weather for every tracked place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mutate(cmd, func(ctx context.Context) error {
				return a.manager.RefreshAll(ctx)
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func searchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Look up places by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.manager.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printResults(cmd, results)
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func addCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add [lat] [lon] [name]",
		Short:   "Track a place and fetch its weather",
		Example: "  weather-tracker add 48.8566 2.3522 Paris\n  weather-tracker add -- -33.87 151.21 Sydney",
		Args:    cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil || lat < -90 || lat > 90 {
				return fmt.Errorf("invalid latitude %q", args[0])
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil || lon < -180 || lon > 180 {
				return fmt.Errorf("invalid longitude %q", args[1])
			}
			loc := weather.Location{Lat: lat, Lon: lon, Name: strings.Join(args[2:], " ")}

			return a.mutate(cmd, func(ctx context.Context) error {
				added, err := a.manager.AddAndRefresh(ctx, loc)
				if err == nil && !added {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s is already tracked\n", loc.Name)
				}
				return err
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func removeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove [index]",
		Short: "Stop tracking the place at index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			return a.mutate(cmd, func(ctx context.Context) error {
				return a.manager.Remove(ctx, index)
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}

func reorderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder [a] [b]",
		Short: "Swap the places at two positions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			return a.mutate(cmd, func(ctx context.Context) error {
				return a.manager.Reorder(ctx, from, to)
			})
		},
	}
	addOutputFlag(cmd)
	return cmd
}

// mutate loads the cache, applies fn, writes the cache back and prints the result.
func (a *app) mutate(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	ctx := cmd.Context()
	if err := a.manager.Load(ctx); err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return err
	}

	a.manager.Save()
	a.manager.Flush()
	return printCities(cmd, a.state.Cities())
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "text", "output format (text, json)")
}

func jsonOutput(cmd *cobra.Command) bool {
	output, _ := cmd.Flags().GetString("output")
	return output == "json"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCities(cmd *cobra.Command, cities []view.CityWeather) error {
	w := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return writeJSON(w, cities)
	}

	if len(cities) == 0 {
		fmt.Fprintln(w, "No places tracked yet.")
		return nil
	}
	for i, c := range cities {
		fmt.Fprintf(w, "%d. %s  %.1f°  %s  (updated %s)\n",
			i, c.CityName, c.Current.CurrentTemp, c.Current.Description, c.UpdateTime)
		for _, d := range c.Forecast {
			fmt.Fprintf(w, "     %-9s %5.1f° / %5.1f°  %s\n",
				d.DayName, d.Weather.DetailedTemp.Min, d.Weather.DetailedTemp.Max, d.Weather.Description)
		}
	}
	return nil
}

func printResults(cmd *cobra.Command, results []weather.SearchResult) error {
	w := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		return writeJSON(w, results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No matches.")
		return nil
	}
	for _, r := range results {
		place := r.Name
		if r.State != nil {
			place += ", " + *r.State
		}
		fmt.Fprintf(w, "%s (%s)  add with: %s %s %q\n",
			place, r.Country,
			strconv.FormatFloat(r.Lat, 'f', -1, 64), strconv.FormatFloat(r.Lon, 'f', -1, 64), r.Name)
	}
	return nil
}

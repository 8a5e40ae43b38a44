// Package console implements the interactive menu that drives the bin store.
// The controller reads line-oriented input and writes human-readable text;
// every mutating choice flushes the store before the menu is shown again.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/wastebin/internal/binstore"
	"github.com/mesh-intelligence/wastebin/pkg/types"
)

// Menu choices.
const (
	ChoiceRegister = iota + 1
	ChoiceList
	ChoiceUpdateLevel
	ChoiceMark
	ChoiceDelete
	ChoiceExit
)

const menu = `
===== Smart Waste Management System =====
1. Register a Waste Bin
2. View All Waste Bins
3. Update Waste Levels
4. Mark Bin for Collection
5. Delete a Waste Bin
6. Exit
Enter your choice: `

// User-facing messages.
const (
	msgRegistered    = "Waste Bin registered successfully!"
	msgDuplicateID   = "Error! Waste Bin ID already exists."
	msgNotFound      = "Waste bin not found!"
	msgLevelUpdated  = "Waste level updated successfully!"
	msgMarked        = "Waste bin marked for collection!"
	msgDeleted       = "Waste bin deleted successfully!"
	msgInvalidChoice = "Invalid choice! Try again."
	msgInvalidNumber = "Invalid number! Try again."
	msgInvalidLevel  = "Error! Waste level must be between 0 and 100."
	msgEmpty         = "No waste bins registered."
	msgExit          = "Exiting Smart Waste Management System. Thank you!"
)

// Controller runs the menu loop against a store.
type Controller struct {
	store  *binstore.Store
	in     *bufio.Reader
	out    io.Writer
	logger *zap.Logger
}

// New returns a controller reading choices from in and writing to out.
func New(store *binstore.Store, in io.Reader, out io.Writer, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:  store,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
	}
}

// errQuit ends the loop on end of input.
var errQuit = errors.New("quit")

// Run shows the menu until the operator picks Exit or input ends. It returns
// a non-nil error only when reading input fails.
func (c *Controller) Run() error {
	for {
		fmt.Fprint(c.out, menu)

		choice, err := c.readInt()
		if err != nil {
			if errors.Is(err, errQuit) {
				fmt.Fprintln(c.out)
				fmt.Fprintln(c.out, msgExit)
				return nil
			}
			if errors.Is(err, strconv.ErrSyntax) || errors.Is(err, strconv.ErrRange) {
				fmt.Fprintln(c.out, msgInvalidChoice)
				continue
			}
			return err
		}

		if choice == ChoiceExit {
			fmt.Fprintln(c.out, msgExit)
			return nil
		}

		if err := c.dispatch(choice); err != nil {
			if errors.Is(err, errQuit) {
				fmt.Fprintln(c.out)
				fmt.Fprintln(c.out, msgExit)
				return nil
			}
			return err
		}
	}
}

func (c *Controller) dispatch(choice int) error {
	var err error
	switch choice {
	case ChoiceRegister:
		err = c.register()
	case ChoiceList:
		c.list()
	case ChoiceUpdateLevel:
		err = c.updateLevel()
	case ChoiceMark:
		err = c.mark()
	case ChoiceDelete:
		err = c.remove()
	default:
		fmt.Fprintln(c.out, msgInvalidChoice)
	}

	// A malformed number aborts the current operation only.
	if errors.Is(err, strconv.ErrSyntax) || errors.Is(err, strconv.ErrRange) {
		fmt.Fprintln(c.out, msgInvalidNumber)
		return nil
	}
	return err
}

func (c *Controller) register() error {
	id, err := c.promptInt("Enter Waste Bin ID: ")
	if err != nil {
		return err
	}
	if !c.store.IsIDUnique(id) {
		fmt.Fprintln(c.out, msgDuplicateID)
		return nil
	}

	location, err := c.prompt("Enter Location: ")
	if err != nil {
		return err
	}
	material, err := c.prompt("Enter Type (Organic, Plastic, Metal, etc.): ")
	if err != nil {
		return err
	}
	level, err := c.promptInt("Enter Initial Waste Level (0-100%): ")
	if err != nil {
		return err
	}

	err = c.store.Register(types.Bin{
		ID:           id,
		Location:     location,
		MaterialType: material,
		FillLevel:    level,
	})
	switch {
	case errors.Is(err, types.ErrDuplicateID):
		fmt.Fprintln(c.out, msgDuplicateID)
		return nil
	case errors.Is(err, types.ErrInvalidFillLevel):
		fmt.Fprintln(c.out, msgInvalidLevel)
		return nil
	case err != nil:
		return c.reportFailure("register", id, err)
	}

	if c.flush() {
		fmt.Fprintln(c.out, msgRegistered)
	}
	return nil
}

func (c *Controller) list() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "===== Waste Bins List =====")
	bins := c.store.List()
	if len(bins) == 0 {
		fmt.Fprintln(c.out, msgEmpty)
		return
	}
	for _, b := range bins {
		fmt.Fprintln(c.out, FormatBin(b))
	}
}

func (c *Controller) updateLevel() error {
	id, err := c.promptInt("Enter Waste Bin ID to update level: ")
	if err != nil {
		return err
	}
	if _, ok := c.store.FindByID(id); !ok {
		fmt.Fprintln(c.out, msgNotFound)
		return nil
	}

	level, err := c.promptInt("Enter New Waste Level (0-100%): ")
	if err != nil {
		return err
	}

	err = c.store.UpdateFillLevel(id, level)
	switch {
	case errors.Is(err, types.ErrNotFound):
		fmt.Fprintln(c.out, msgNotFound)
		return nil
	case errors.Is(err, types.ErrInvalidFillLevel):
		fmt.Fprintln(c.out, msgInvalidLevel)
		return nil
	case err != nil:
		return c.reportFailure("update level", id, err)
	}

	if c.flush() {
		fmt.Fprintln(c.out, msgLevelUpdated)
	}
	return nil
}

func (c *Controller) mark() error {
	id, err := c.promptInt("Enter Waste Bin ID to mark for collection: ")
	if err != nil {
		return err
	}

	err = c.store.MarkForCollection(id)
	switch {
	case errors.Is(err, types.ErrNotFound):
		fmt.Fprintln(c.out, msgNotFound)
		return nil
	case err != nil:
		return c.reportFailure("mark", id, err)
	}

	if c.flush() {
		fmt.Fprintln(c.out, msgMarked)
	}
	return nil
}

func (c *Controller) remove() error {
	id, err := c.promptInt("Enter Waste Bin ID to delete: ")
	if err != nil {
		return err
	}

	err = c.store.Delete(id)
	switch {
	case errors.Is(err, types.ErrNotFound):
		fmt.Fprintln(c.out, msgNotFound)
		return nil
	case err != nil:
		return c.reportFailure("delete", id, err)
	}

	if c.flush() {
		fmt.Fprintln(c.out, msgDeleted)
	}
	return nil
}

// flush persists the store and reports a failure to the operator. It returns
// whether the save succeeded.
func (c *Controller) flush() bool {
	if err := c.store.Flush(); err != nil {
		c.logger.Error("failed to save waste bins", zap.Error(err))
		fmt.Fprintf(c.out, "Error saving waste bins: %v\n", err)
		fmt.Fprintln(c.out, "The change is kept in memory and will be written on the next successful save.")
		return false
	}
	return true
}

// reportFailure prints an unexpected store error and keeps the loop running.
func (c *Controller) reportFailure(op string, id int, err error) error {
	c.logger.Error("operation failed", zap.String("operation", op), zap.Int("bin_id", id), zap.Error(err))
	fmt.Fprintf(c.out, "Error! %s failed: %v\n", op, err)
	return nil
}

func (c *Controller) prompt(text string) (string, error) {
	fmt.Fprint(c.out, text)
	return c.readLine()
}

func (c *Controller) promptInt(text string) (int, error) {
	fmt.Fprint(c.out, text)
	return c.readInt()
}

// readLine returns the next input line without its line ending. End of input
// with nothing pending returns errQuit.
func (c *Controller) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", errQuit
			}
			return strings.TrimSpace(line), nil
		}
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readInt reads a line and parses it as a decimal integer. Parse failures
// wrap strconv.ErrSyntax or strconv.ErrRange.
func (c *Controller) readInt() (int, error) {
	line, err := c.readLine()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(line)
}

// FormatBin renders one bin the way the list view shows it.
func FormatBin(b types.Bin) string {
	return fmt.Sprintf("Bin ID: %d | Location: %s | Type: %s | Waste Level: %d%% | %s",
		b.ID, b.Location, b.MaterialType, b.FillLevel, Status(b))
}

// Status returns the human-readable collection indicator for b.
func Status(b types.Bin) string {
	switch {
	case b.NeedsCollection && b.Manual():
		return "Needs Collection (manual)"
	case b.NeedsCollection:
		return "Needs Collection"
	default:
		return "Not Full"
	}
}
